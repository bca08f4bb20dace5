// Package webhook verifies timestamped HMAC-SHA256 signature headers of the form
// "t=<unix seconds>,v1=<hex digest>[,v1=<hex digest>...]". The digest covers "<t>.<raw body>".
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the accepted clock skew between signer and receiver
const DefaultTolerance = 5 * time.Minute

var (
	ErrMissingHeader      = errors.New("webhook: missing signature header")
	ErrInvalidHeader      = errors.New("webhook: malformed signature header")
	ErrMissingSecret      = errors.New("webhook: signing secret not configured")
	ErrTimestampTolerance = errors.New("webhook: timestamp outside tolerance")
	ErrNoValidSignature   = errors.New("webhook: no valid signature found")
)

type signedHeader struct {
	timestamp  time.Time
	signatures [][]byte
}

func parseHeader(header string) (*signedHeader, error) {
	if strings.TrimSpace(header) == "" {
		return nil, ErrMissingHeader
	}

	sh := &signedHeader{}
	var haveTimestamp bool
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, ErrInvalidHeader
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, ErrInvalidHeader
			}
			sh.timestamp = time.Unix(ts, 0)
			haveTimestamp = true
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				// an undecodable candidate can never match; skip it
				continue
			}
			sh.signatures = append(sh.signatures, sig)
		}
	}

	if !haveTimestamp {
		return nil, ErrInvalidHeader
	}
	if len(sh.signatures) == 0 {
		return nil, ErrNoValidSignature
	}
	return sh, nil
}

func computeSignature(t time.Time, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(t.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// Verify checks header against payload using secret, rejecting timestamps more than
// tolerance away from now in either direction.
func Verify(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return ErrMissingSecret
	}
	sh, err := parseHeader(header)
	if err != nil {
		return err
	}

	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	skew := now.Sub(sh.timestamp)
	if skew > tolerance || skew < -tolerance {
		return ErrTimestampTolerance
	}

	expected := computeSignature(sh.timestamp, payload, secret)
	for _, sig := range sh.signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return ErrNoValidSignature
}

// Sign builds a header value for payload signed at t
func Sign(payload []byte, secret string, t time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", t.Unix(), hex.EncodeToString(computeSignature(t, payload, secret)))
}
