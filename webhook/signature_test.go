package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const secret = "whsec_test"

func TestVerify(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		header  string
		secret  string
		payload []byte
		wantErr error
	}{
		{name: "valid", header: Sign(payload, secret, now), secret: secret, payload: payload},
		{name: "valid within past tolerance", header: Sign(payload, secret, now.Add(-4*time.Minute)), secret: secret, payload: payload},
		{name: "valid within future tolerance", header: Sign(payload, secret, now.Add(4*time.Minute)), secret: secret, payload: payload},
		{name: "too old", header: Sign(payload, secret, now.Add(-6*time.Minute)), secret: secret, payload: payload, wantErr: ErrTimestampTolerance},
		{name: "too far in future", header: Sign(payload, secret, now.Add(6*time.Minute)), secret: secret, payload: payload, wantErr: ErrTimestampTolerance},
		{name: "tampered body", header: Sign(payload, secret, now), secret: secret, payload: []byte(`{"id":"evt_2"}`), wantErr: ErrNoValidSignature},
		{name: "wrong secret", header: Sign(payload, "other", now), secret: secret, payload: payload, wantErr: ErrNoValidSignature},
		{name: "empty header", header: "", secret: secret, payload: payload, wantErr: ErrMissingHeader},
		{name: "no timestamp", header: "v1=abcd", secret: secret, payload: payload, wantErr: ErrInvalidHeader},
		{name: "bad timestamp", header: "t=soon,v1=abcd", secret: secret, payload: payload, wantErr: ErrInvalidHeader},
		{name: "garbage", header: "nonsense", secret: secret, payload: payload, wantErr: ErrInvalidHeader},
		{name: "no v1", header: "t=1700000000,v0=abcd", secret: secret, payload: payload, wantErr: ErrNoValidSignature},
		{name: "missing secret", header: Sign(payload, secret, now), secret: "", payload: payload, wantErr: ErrMissingSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.payload, tt.header, tt.secret, DefaultTolerance, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify_AnyOfMultipleSignatures(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Unix(1_700_000_000, 0)
	good := Sign(payload, secret, now)

	header := "t=1700000000,v1=deadbeef,v1=zz-not-hex," + good[len("t=1700000000,"):]
	assert.NoError(t, Verify(payload, header, secret, DefaultTolerance, now))
}

func TestVerify_ZeroToleranceUsesDefault(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Unix(1_700_000_000, 0)

	assert.NoError(t, Verify(payload, Sign(payload, secret, now.Add(-time.Minute)), secret, 0, now))
}
