package server_test

import (
	"academy/models"
	courseModels "academy/models/course"
	"academy/server"
	"academy/testutil"
	"academy/utils"
	"academy/webhook"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, v), string(e.Data))
}

func newApp(t *testing.T) (*testutil.Env, *fiber.App) {
	env := testutil.Setup(t)
	return env, server.NewApp(env.Config, false)
}

func do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return roundTrip(t, app, req)
}

func roundTrip(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out envelope
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func postWebhook(t *testing.T, app *fiber.App, path, header string, payload []byte, signature string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, signature)
	return roundTrip(t, app, req)
}

func paymentEvent(t *testing.T, id, eventType string, object map[string]interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":   id,
		"type": eventType,
		"data": map[string]interface{}{"object": object},
	})
	require.NoError(t, err)
	return raw
}

func sendPaymentEvent(t *testing.T, app *fiber.App, payload []byte) (int, envelope) {
	t.Helper()
	return postWebhook(t, app, "/webhooks/payment", "Stripe-Signature", payload,
		webhook.Sign(payload, testutil.PaymentSecret, time.Now()))
}

func TestHealth(t *testing.T) {
	_, app := newApp(t)

	code, body := do(t, app, fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.True(t, body.Status)

	code, body = do(t, app, fiber.MethodGet, "/does/not/exist", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Route not found!", body.Message)
}

func TestSignup_RejectsDuplicateEmail(t *testing.T) {
	env, app := newApp(t)

	req := map[string]string{"name": "Grace", "email": "grace@example.com", "password": "longenough"}
	code, _ := do(t, app, fiber.MethodPost, "/auth/signup", "", req)
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, []string{"Welcome to Academy"}, env.Mailer.Subjects("grace@example.com"))

	req["email"] = "Grace@Example.com"
	code, body := do(t, app, fiber.MethodPost, "/auth/signup", "", req)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Email is already registered!", body.Message)

	code, body = do(t, app, fiber.MethodPost, "/auth/signup", "", map[string]string{"email": "nope"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.False(t, body.Status)
}

func TestLogin_LocksAccountAfterRepeatedFailures(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Linus", "linus@example.com", models.RoleUser)

	wrong := map[string]string{"email": user.Email, "password": "wrong-password"}
	for i := 0; i < 5; i++ {
		code, _ := do(t, app, fiber.MethodPost, "/auth/login", "", wrong)
		assert.Equal(t, fiber.StatusUnauthorized, code, "attempt %d", i+1)
	}

	right := map[string]string{"email": user.Email, "password": testutil.Password}
	code, body := do(t, app, fiber.MethodPost, "/auth/login", "", right)
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "Your account is temporarily blocked. Try again later.", body.Message)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, env.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("blocked_until", past).Error)

	code, body = do(t, app, fiber.MethodPost, "/auth/login", "", right)
	require.Equal(t, fiber.StatusOK, code)
	var login struct {
		Token string `json:"token"`
	}
	body.decode(t, &login)
	assert.NotEmpty(t, login.Token)

	code, _ = do(t, app, fiber.MethodGet, "/user/profile", "Bearer "+login.Token, nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestCourseAccessGating(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Ken", "ken@example.com", models.RoleUser)
	token := env.Token(t, user)
	paid := env.CreateCourse(t, "Paid Go", "49.00", 2)
	free := env.CreateCourse(t, "Free Go", "0", 2)

	type outline struct {
		HasAccess bool `json:"has_access"`
		Modules   []struct {
			Lessons []struct {
				ID         uint   `json:"id"`
				PlaybackID string `json:"playback_id"`
			} `json:"lessons"`
		} `json:"modules"`
	}

	code, body := do(t, app, fiber.MethodGet, "/course/"+paid.Course.Slug, "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var page outline
	body.decode(t, &page)
	assert.False(t, page.HasAccess)
	require.Len(t, page.Modules, 1)
	require.Len(t, page.Modules[0].Lessons, 2)
	assert.NotEmpty(t, page.Modules[0].Lessons[0].PlaybackID, "free preview stays playable")
	assert.Empty(t, page.Modules[0].Lessons[1].PlaybackID)

	code, body = do(t, app, fiber.MethodPost, fmt.Sprintf("/course/%d/enroll", paid.Course.ID), token, nil)
	assert.Equal(t, fiber.StatusPaymentRequired, code)

	lessonPath := func(f testutil.CourseFixture, i int) string {
		return fmt.Sprintf("/course/%d/lesson/%d", f.Course.ID, f.Lessons[i].ID)
	}
	code, body = do(t, app, fiber.MethodGet, lessonPath(paid, 1), token, nil)
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "Please enroll in this course first!", body.Message)

	code, body = do(t, app, fiber.MethodGet, lessonPath(paid, 0), token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var lesson struct {
		StreamURL string `json:"stream_url"`
	}
	body.decode(t, &lesson)
	assert.Equal(t, "https://stream.mux.com/"+paid.Lessons[0].MuxPlaybackID+".m3u8", lesson.StreamURL)

	code, _ = do(t, app, fiber.MethodGet, lessonPath(paid, 1), "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = do(t, app, fiber.MethodPost, fmt.Sprintf("/course/%d/enroll", free.Course.ID), token, nil)
	assert.Equal(t, fiber.StatusCreated, code)
	code, body = do(t, app, fiber.MethodPost, fmt.Sprintf("/course/%d/enroll", free.Course.ID), token, nil)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Already enrolled in this course!", body.Message)
	assert.Contains(t, env.Mailer.Subjects(user.Email), "Enrollment Confirmed: Free Go")

	code, _ = do(t, app, fiber.MethodGet, lessonPath(free, 1), token, nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, body = do(t, app, fiber.MethodGet, "/course/"+free.Course.Slug, token, nil)
	require.Equal(t, fiber.StatusOK, code)
	page = outline{}
	body.decode(t, &page)
	assert.True(t, page.HasAccess)
	assert.NotEmpty(t, page.Modules[0].Lessons[1].PlaybackID)
}

func TestProgressCompletionAndCertificate(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Barbara", "barbara@example.com", models.RoleUser)
	token := env.Token(t, user)
	fixture := env.CreateCourse(t, "Distributed Systems", "0", 2)

	progressPath := func(i int) string {
		return fmt.Sprintf("/course/%d/lesson/%d/progress", fixture.Course.ID, fixture.Lessons[i].ID)
	}

	code, _ := do(t, app, fiber.MethodPost, progressPath(0), token, map[string]interface{}{"watched_seconds": 10})
	assert.Equal(t, fiber.StatusForbidden, code, "previews alone do not track progress")

	env.Enroll(t, user.ID, fixture.Course.ID)

	type progressResult struct {
		LessonProgress courseModels.LessonProgress `json:"lesson_progress"`
		Enrollment     courseModels.Enrollment     `json:"enrollment"`
		CourseDone     bool                        `json:"course_completed"`
		Certificate    *courseModels.Certificate   `json:"certificate"`
	}

	code, body := do(t, app, fiber.MethodPost, progressPath(0), token, map[string]interface{}{"watched_seconds": 40})
	require.Equal(t, fiber.StatusOK, code)
	code, body = do(t, app, fiber.MethodPost, progressPath(0), token, map[string]interface{}{"watched_seconds": 20, "completed": true})
	require.Equal(t, fiber.StatusOK, code)
	var first progressResult
	body.decode(t, &first)
	assert.Equal(t, 40, first.LessonProgress.WatchedSeconds, "watch time never decreases")
	assert.True(t, first.LessonProgress.Completed)
	assert.Equal(t, 50.0, first.Enrollment.Progress)
	assert.Equal(t, courseModels.EnrollmentInProgress, first.Enrollment.Status)
	assert.Nil(t, first.Certificate)

	code, body = do(t, app, fiber.MethodPost, progressPath(1), token, map[string]interface{}{"watched_seconds": 60, "completed": true})
	require.Equal(t, fiber.StatusOK, code)
	var second progressResult
	body.decode(t, &second)
	assert.Equal(t, 100.0, second.Enrollment.Progress)
	assert.Equal(t, courseModels.EnrollmentCompleted, second.Enrollment.Status)
	assert.True(t, second.CourseDone)
	require.NotNil(t, second.Certificate)
	assert.Contains(t, env.Mailer.Subjects(user.Email), "Your Certificate: Distributed Systems")

	code, body = do(t, app, fiber.MethodGet, fmt.Sprintf("/course/%d/progress", fixture.Course.ID), token, nil)
	assert.Equal(t, fiber.StatusOK, code)

	number := strings.ToLower(second.Certificate.CertificateNumber)
	code, body = do(t, app, fiber.MethodGet, "/certificate/verify/"+number, "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var verified struct {
		Number      string `json:"certificate_number"`
		HolderName  string `json:"holder_name"`
		CourseTitle string `json:"course_title"`
	}
	body.decode(t, &verified)
	assert.Equal(t, second.Certificate.CertificateNumber, verified.Number)
	assert.Equal(t, "Barbara", verified.HolderName)
	assert.Equal(t, "Distributed Systems", verified.CourseTitle)

	code, _ = do(t, app, fiber.MethodGet, "/certificate/verify/CERT-00000000-DEADBEEF", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	// replaying the final lesson keeps the single certificate
	code, body = do(t, app, fiber.MethodPost, progressPath(1), token, map[string]interface{}{"watched_seconds": 61, "completed": true})
	require.Equal(t, fiber.StatusOK, code)
	var count int64
	env.DB.Model(&courseModels.Certificate{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCheckoutWebhookAndRefund(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Rob", "rob@example.com", models.RoleUser)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	token := env.Token(t, user)
	fixture := env.CreateCourse(t, "Concurrency in Go", "49.00", 2)
	free := env.CreateCourse(t, "Go Basics", "0", 1)

	code, body := do(t, app, fiber.MethodPost, "/checkout/session", token, map[string]uint{"course_id": free.Course.ID})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "This is a free course, enroll directly!", body.Message)

	code, body = do(t, app, fiber.MethodPost, "/checkout/session", token, map[string]uint{"course_id": fixture.Course.ID})
	require.Equal(t, fiber.StatusCreated, code)
	var session struct {
		CheckoutURL string       `json:"checkout_url"`
		Order       models.Order `json:"order"`
	}
	body.decode(t, &session)
	assert.Equal(t, "https://pay.test/cs_test_1", session.CheckoutURL)
	assert.Equal(t, models.OrderPending, session.Order.Status)
	assert.Equal(t, "49", session.Order.Amount.String())
	require.Len(t, env.Payment.Sessions, 1)
	assert.Equal(t, session.Order.Reference, env.Payment.Sessions[0].Reference)
	assert.True(t, strings.HasPrefix(env.Payment.Sessions[0].SuccessURL, "http://frontend.test/checkout/success"))

	code, body = do(t, app, fiber.MethodPost, "/checkout/session", token, map[string]uint{"course_id": fixture.Course.ID})
	assert.Equal(t, fiber.StatusOK, code, "open session is reused")
	assert.Len(t, env.Payment.Sessions, 1)

	completed := paymentEvent(t, "evt_paid_1", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_test_1",
		"client_reference_id": session.Order.Reference,
		"payment_status":      "paid",
		"payment_intent":      "pi_1",
	})

	code, body = postWebhook(t, app, "/webhooks/payment", "Stripe-Signature", completed,
		webhook.Sign(completed, "whsec_wrong", time.Now()))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid webhook signature!", body.Message)

	code, body = postWebhook(t, app, "/webhooks/payment", "Stripe-Signature", completed,
		webhook.Sign(completed, testutil.PaymentSecret, time.Now().Add(-time.Hour)))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Webhook timestamp outside tolerance!", body.Message)

	code, body = sendPaymentEvent(t, app, completed)
	require.Equal(t, fiber.StatusOK, code, body.Message)

	var order models.Order
	require.NoError(t, env.DB.Where("reference = ?", session.Order.Reference).First(&order).Error)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, "pi_1", order.PaymentIntentID)
	assert.NotNil(t, order.PaidAt)

	var enrollment courseModels.Enrollment
	require.NoError(t, env.DB.Where("user_id = ? AND course_id = ?", user.ID, fixture.Course.ID).First(&enrollment).Error)
	assert.Equal(t, courseModels.SourcePurchase, enrollment.Source)
	require.NotNil(t, enrollment.OrderID)
	assert.Equal(t, order.ID, *enrollment.OrderID)
	subjects := env.Mailer.Subjects(user.Email)
	assert.Contains(t, subjects, "Payment Received")
	assert.Contains(t, subjects, "Enrollment Confirmed: Concurrency in Go")

	code, body = sendPaymentEvent(t, app, completed)
	require.Equal(t, fiber.StatusOK, code)
	var dup struct {
		AlreadyProcessed bool `json:"already_processed"`
	}
	body.decode(t, &dup)
	assert.True(t, dup.AlreadyProcessed)
	var events int64
	env.DB.Model(&models.WebhookEvent{}).Where("event_id = ?", "evt_paid_1").Count(&events)
	assert.EqualValues(t, 1, events)

	code, _ = do(t, app, fiber.MethodPost, "/checkout/session", token, map[string]uint{"course_id": fixture.Course.ID})
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = do(t, app, fiber.MethodGet, "/checkout/order/"+order.Reference, token, nil)
	assert.Equal(t, fiber.StatusOK, code)
	code, _ = do(t, app, fiber.MethodGet, "/checkout/order/"+order.Reference, env.Token(t, admin), nil)
	assert.Equal(t, fiber.StatusNotFound, code, "orders are visible to their owner only")

	code, _ = do(t, app, fiber.MethodPost, "/admin/orders/"+order.Reference+"/refund", token, nil)
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = do(t, app, fiber.MethodPost, "/admin/orders/"+order.Reference+"/refund", env.Token(t, admin), nil)
	require.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, []string{"pi_1"}, env.Payment.Refunds)

	refunded := paymentEvent(t, "evt_refund_1", "charge.refunded", map[string]interface{}{
		"id":             "ch_1",
		"payment_intent": "pi_1",
		"refunded":       true,
	})
	code, _ = sendPaymentEvent(t, app, refunded)
	require.Equal(t, fiber.StatusOK, code)

	require.NoError(t, env.DB.First(&order, order.ID).Error)
	assert.Equal(t, models.OrderRefunded, order.Status)
	require.NoError(t, env.DB.First(&enrollment, enrollment.ID).Error)
	assert.Equal(t, courseModels.EnrollmentRevoked, enrollment.Status)

	code, _ = do(t, app, fiber.MethodGet, fmt.Sprintf("/course/%d/lesson/%d", fixture.Course.ID, fixture.Lessons[1].ID), token, nil)
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestCheckout_ProviderFailureMarksOrderFailed(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Ann", "ann@example.com", models.RoleUser)
	fixture := env.CreateCourse(t, "Paid Course", "10.00", 1)
	env.Payment.FailNext = errors.New("provider down")

	code, _ := do(t, app, fiber.MethodPost, "/checkout/session", env.Token(t, user), map[string]uint{"course_id": fixture.Course.ID})
	assert.Equal(t, fiber.StatusBadGateway, code)

	var order models.Order
	require.NoError(t, env.DB.Where("user_id = ?", user.ID).First(&order).Error)
	assert.Equal(t, models.OrderFailed, order.Status)
	assert.NotEmpty(t, order.FailureReason)
}

func TestPaymentWebhook_UnknownOrderIsIgnored(t *testing.T) {
	env, app := newApp(t)

	payload := paymentEvent(t, "evt_ghost", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_ghost",
		"client_reference_id": "no-such-order",
		"payment_status":      "paid",
	})
	code, body := sendPaymentEvent(t, app, payload)
	require.Equal(t, fiber.StatusOK, code)
	var result struct {
		Status string `json:"status"`
	}
	body.decode(t, &result)
	assert.Equal(t, models.EventIgnored, result.Status)

	var event models.WebhookEvent
	require.NoError(t, env.DB.Where("event_id = ?", "evt_ghost").First(&event).Error)
	assert.Equal(t, models.EventIgnored, event.Status)

	code, _ = sendPaymentEvent(t, app, []byte(`{"type":"checkout.session.completed"}`))
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestMuxUploadAndAssetWebhooks(t *testing.T) {
	env, app := newApp(t)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	fixture := env.CreateCourse(t, "Video Course", "0", 1)

	lesson := courseModels.Lesson{
		CourseID: fixture.Course.ID, ModuleID: fixture.Module.ID, Title: "Raw footage",
		OrderIndex: 2, IsPublished: true, VideoStatus: courseModels.VideoNone,
	}
	require.NoError(t, env.DB.Create(&lesson).Error)

	code, body := do(t, app, fiber.MethodPost, fmt.Sprintf("/admin/lesson/%d/video/upload", lesson.ID), env.Token(t, admin), nil)
	require.Equal(t, fiber.StatusCreated, code, body.Message)
	var upload struct {
		UploadID  string `json:"upload_id"`
		UploadURL string `json:"upload_url"`
	}
	body.decode(t, &upload)
	assert.Equal(t, "upload_1", upload.UploadID)
	require.Len(t, env.Mux.Uploads, 1)
	passthrough := env.Mux.Uploads[0].Passthrough

	sendMux := func(payload map[string]interface{}, secret string) (int, envelope) {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		return postWebhook(t, app, "/webhooks/mux", "Mux-Signature", raw, webhook.Sign(raw, secret, time.Now()))
	}

	assetCreated := map[string]interface{}{
		"id":     "mux_evt_1",
		"type":   "video.upload.asset_created",
		"object": map[string]string{"type": "upload", "id": upload.UploadID},
		"data": map[string]interface{}{
			"id":                 upload.UploadID,
			"asset_id":           "asset_9",
			"new_asset_settings": map[string]string{"passthrough": passthrough},
		},
	}
	code, _ = sendMux(assetCreated, "whsec_wrong")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = sendMux(assetCreated, testutil.MuxSecret)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, env.DB.First(&lesson, lesson.ID).Error)
	assert.Equal(t, courseModels.VideoProcessing, lesson.VideoStatus)
	assert.Equal(t, "asset_9", lesson.MuxAssetID)

	ready := map[string]interface{}{
		"id":     "mux_evt_2",
		"type":   "video.asset.ready",
		"object": map[string]string{"type": "asset", "id": "asset_9"},
		"data": map[string]interface{}{
			"id":           "asset_9",
			"status":       "ready",
			"upload_id":    upload.UploadID,
			"passthrough":  passthrough,
			"duration":     95.4,
			"playback_ids": []map[string]string{{"id": "play_9", "policy": "public"}},
		},
	}
	code, _ = sendMux(ready, testutil.MuxSecret)
	require.Equal(t, fiber.StatusOK, code)

	require.NoError(t, env.DB.First(&lesson, lesson.ID).Error)
	assert.Equal(t, courseModels.VideoReady, lesson.VideoStatus)
	assert.Equal(t, "play_9", lesson.MuxPlaybackID)
	assert.Equal(t, 95, lesson.DurationSeconds)

	code, body = sendMux(ready, testutil.MuxSecret)
	require.Equal(t, fiber.StatusOK, code)
	var dup struct {
		AlreadyProcessed bool `json:"already_processed"`
	}
	body.decode(t, &dup)
	assert.True(t, dup.AlreadyProcessed)

	var event models.WebhookEvent
	require.NoError(t, env.DB.Where("event_id = ?", "mux_evt_2").First(&event).Error)
	assert.Equal(t, models.EventProcessed, event.Status)
}

func TestSupportTicketFlow(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Dennis", "dennis@example.com", models.RoleUser)
	other := env.CreateUser(t, "Brian", "brian@example.com", models.RoleUser)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	token, adminToken := env.Token(t, user), env.Token(t, admin)

	code, body := do(t, app, fiber.MethodPost, "/support/create", token, map[string]string{
		"subject": "Video will not play", "message": "Lesson 3 shows a black screen", "priority": "HIGH",
	})
	require.Equal(t, fiber.StatusCreated, code, body.Message)
	var ticket models.SupportTicket
	body.decode(t, &ticket)
	assert.Equal(t, models.TicketOpen, ticket.Status)
	require.Len(t, ticket.Messages, 1)

	code, _ = do(t, app, fiber.MethodGet, "/support/admin-list", token, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = do(t, app, fiber.MethodPost, "/support/admin-reply", adminToken, map[string]interface{}{
		"ticketId": ticket.ID, "message": "Try clearing the cache",
	})
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, env.DB.First(&ticket, ticket.ID).Error)
	assert.Equal(t, models.TicketPending, ticket.Status)
	assert.Contains(t, env.Mailer.Subjects(user.Email), "Re: Video will not play")

	code, _ = do(t, app, fiber.MethodPost, "/support/user-reply", token, map[string]interface{}{
		"ticketId": ticket.ID, "message": "Still broken",
	})
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, env.DB.First(&ticket, ticket.ID).Error)
	assert.Equal(t, models.TicketOpen, ticket.Status)

	code, body = do(t, app, fiber.MethodGet, fmt.Sprintf("/support/%d", ticket.ID), token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var detail models.SupportTicket
	body.decode(t, &detail)
	assert.Len(t, detail.Messages, 3)

	code, _ = do(t, app, fiber.MethodGet, fmt.Sprintf("/support/%d", ticket.ID), env.Token(t, other), nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	code, _ = do(t, app, fiber.MethodGet, fmt.Sprintf("/support/%d", ticket.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = do(t, app, fiber.MethodPost, "/support/user-close-ticket", token, map[string]interface{}{"ticketId": ticket.ID})
	require.Equal(t, fiber.StatusOK, code)
	code, body = do(t, app, fiber.MethodPost, "/support/user-reply", token, map[string]interface{}{
		"ticketId": ticket.ID, "message": "One more thing",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Ticket is closed!", body.Message)

	code, body = do(t, app, fiber.MethodGet, "/support/admin-stats", adminToken, nil)
	require.Equal(t, fiber.StatusOK, code)
	var stats struct {
		Total    int64            `json:"total"`
		ByStatus map[string]int64 `json:"by_status"`
	}
	body.decode(t, &stats)
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus[models.TicketClosed])
	assert.EqualValues(t, 0, stats.ByStatus[models.TicketOpen])
}

func TestConsultationPipeline(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Ada", "ada@example.com", models.RoleUser)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	adminToken := env.Token(t, admin)

	code, _ := do(t, app, fiber.MethodPost, "/consultation/request", "", map[string]string{"name": "Visitor", "email": "not-an-email"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	code, body := do(t, app, fiber.MethodPost, "/consultation/request", "", map[string]string{
		"name": "Visitor", "email": "visitor@example.com", "message": "Which course fits me?",
	})
	require.Equal(t, fiber.StatusCreated, code, body.Message)
	var lead models.Consultation
	body.decode(t, &lead)
	assert.Equal(t, models.ConsultationNew, lead.Status)
	assert.Nil(t, lead.UserID)
	assert.Equal(t, []string{"We received your consultation request"}, env.Mailer.Subjects("visitor@example.com"))

	code, body = do(t, app, fiber.MethodPost, "/consultation/request", env.Token(t, user), map[string]string{
		"name": "Ada", "email": "ada@example.com",
	})
	require.Equal(t, fiber.StatusCreated, code)
	var own models.Consultation
	body.decode(t, &own)
	require.NotNil(t, own.UserID)
	assert.Equal(t, user.ID, *own.UserID)

	code, _ = do(t, app, fiber.MethodGet, "/admin/crm/consultations", env.Token(t, user), nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	path := fmt.Sprintf("/admin/crm/consultations/%d", lead.ID)
	code, body = do(t, app, fiber.MethodPut, path, adminToken, map[string]string{"status": models.ConsultationScheduled})
	assert.Equal(t, fiber.StatusBadRequest, code)

	when := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	code, body = do(t, app, fiber.MethodPut, path, adminToken, map[string]interface{}{
		"status": models.ConsultationScheduled, "scheduled_at": when, "assigned_to": admin.ID,
	})
	require.Equal(t, fiber.StatusOK, code, body.Message)
	require.NoError(t, env.DB.First(&lead, lead.ID).Error)
	assert.Equal(t, models.ConsultationScheduled, lead.Status)
	assert.NotNil(t, lead.ContactedAt)

	code, _ = do(t, app, fiber.MethodPut, path, adminToken, map[string]interface{}{"assigned_to": user.ID})
	assert.Equal(t, fiber.StatusBadRequest, code, "leads are assigned to admins only")

	code, _ = do(t, app, fiber.MethodPut, path, adminToken, map[string]string{"status": models.ConsultationConverted})
	require.Equal(t, fiber.StatusOK, code)
	code, body = do(t, app, fiber.MethodPut, path, adminToken, map[string]string{"status": models.ConsultationLost})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = do(t, app, fiber.MethodGet, "/admin/crm/consultations?status=CONVERTED", adminToken, nil)
	require.Equal(t, fiber.StatusOK, code)
	var list struct {
		Consultations []models.Consultation `json:"consultations"`
	}
	body.decode(t, &list)
	require.Len(t, list.Consultations, 1)
	assert.Equal(t, lead.ID, list.Consultations[0].ID)

	code, body = do(t, app, fiber.MethodGet, "/admin/crm/stats", adminToken, nil)
	require.Equal(t, fiber.StatusOK, code)
	var stats struct {
		Total          int64            `json:"total"`
		ByStatus       map[string]int64 `json:"by_status"`
		ConversionRate float64          `json:"conversion_rate"`
	}
	body.decode(t, &stats)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus[models.ConsultationNew])
	assert.Equal(t, 50.0, stats.ConversionRate)
}

func TestReviewsRecomputeRating(t *testing.T) {
	env, app := newApp(t)
	fixture := env.CreateCourse(t, "Rated Course", "0", 1)
	alice := env.CreateUser(t, "Alice", "alice@example.com", models.RoleUser)
	bob := env.CreateUser(t, "Bob", "bob@example.com", models.RoleUser)
	path := fmt.Sprintf("/course/%d/review", fixture.Course.ID)

	code, _ := do(t, app, fiber.MethodPost, path, env.Token(t, alice), map[string]interface{}{"rating": 5})
	assert.Equal(t, fiber.StatusForbidden, code)

	env.Enroll(t, alice.ID, fixture.Course.ID)
	env.Enroll(t, bob.ID, fixture.Course.ID)

	code, _ = do(t, app, fiber.MethodPost, path, env.Token(t, alice), map[string]interface{}{"rating": 6})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	code, _ = do(t, app, fiber.MethodPost, path, env.Token(t, alice), map[string]interface{}{"rating": 5, "comment": "Great"})
	require.Equal(t, fiber.StatusCreated, code)
	code, body := do(t, app, fiber.MethodPost, path, env.Token(t, alice), map[string]interface{}{"rating": 1})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "You have already reviewed this course!", body.Message)

	code, _ = do(t, app, fiber.MethodPost, path, env.Token(t, bob), map[string]interface{}{"rating": 4})
	require.Equal(t, fiber.StatusCreated, code)

	var course courseModels.Course
	require.NoError(t, env.DB.First(&course, fixture.Course.ID).Error)
	assert.Equal(t, 4.5, course.Rating)
	assert.Equal(t, 2, course.ReviewCount)

	code, _ = do(t, app, fiber.MethodPut, path, env.Token(t, bob), map[string]interface{}{"rating": 2})
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, env.DB.First(&course, fixture.Course.ID).Error)
	assert.Equal(t, 3.5, course.Rating)

	code, _ = do(t, app, fiber.MethodDelete, path, env.Token(t, alice), nil)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, env.DB.First(&course, fixture.Course.ID).Error)
	assert.Equal(t, 2.0, course.Rating)
	assert.Equal(t, 1, course.ReviewCount)

	code, _ = do(t, app, fiber.MethodPost, path, env.Token(t, alice), map[string]interface{}{"rating": 4})
	require.Equal(t, fiber.StatusCreated, code, "a deleted review can be written again")
	require.NoError(t, env.DB.First(&course, fixture.Course.ID).Error)
	assert.Equal(t, 3.0, course.Rating)
	assert.Equal(t, 2, course.ReviewCount)
	var rows int64
	env.DB.Model(&courseModels.Review{}).Where("user_id = ? AND course_id = ?", alice.ID, fixture.Course.ID).Count(&rows)
	assert.EqualValues(t, 1, rows)

	err := env.DB.Create(&courseModels.Review{UserID: bob.ID, CourseID: fixture.Course.ID, Rating: 3}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	code, _ = do(t, app, fiber.MethodGet, fmt.Sprintf("/course/%d/reviews", fixture.Course.ID), "", nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestAdminCourseAuthoring(t *testing.T) {
	env, app := newApp(t)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	user := env.CreateUser(t, "Student", "student@example.com", models.RoleUser)
	adminToken := env.Token(t, admin)

	newCourse := map[string]interface{}{
		"title": "Intro to Go", "description": "Learn the language", "price": "19.99",
	}
	code, _ := do(t, app, fiber.MethodPost, "/admin/course/create", env.Token(t, user), newCourse)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body := do(t, app, fiber.MethodPost, "/admin/course/create", adminToken, newCourse)
	require.Equal(t, fiber.StatusCreated, code, body.Message)
	var course courseModels.Course
	body.decode(t, &course)
	assert.Equal(t, "intro-to-go", course.Slug)
	assert.Equal(t, courseModels.StatusDraft, course.Status)

	code, body = do(t, app, fiber.MethodPost, "/admin/course/create", adminToken, newCourse)
	require.Equal(t, fiber.StatusCreated, code)
	var second courseModels.Course
	body.decode(t, &second)
	assert.Equal(t, "intro-to-go-2", second.Slug)

	newCourse["slug"] = "intro-to-go"
	code, _ = do(t, app, fiber.MethodPost, "/admin/course/create", adminToken, newCourse)
	assert.Equal(t, fiber.StatusConflict, code)

	base := fmt.Sprintf("/admin/course/%d", course.ID)
	code, _ = do(t, app, fiber.MethodPost, base+"/publish", adminToken, map[string]bool{"published": true})
	assert.Equal(t, fiber.StatusBadRequest, code, "a course needs a published lesson first")

	var modules [2]courseModels.Module
	for i, title := range []string{"Basics", "Advanced"} {
		code, body = do(t, app, fiber.MethodPost, base+"/module", adminToken, map[string]string{"title": title})
		require.Equal(t, fiber.StatusCreated, code, body.Message)
		body.decode(t, &modules[i])
		assert.Equal(t, i+1, modules[i].OrderIndex)
	}

	code, _ = do(t, app, fiber.MethodPut, base+"/modules/reorder", adminToken, map[string][]uint{
		"module_ids": {modules[1].ID, modules[0].ID},
	})
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, env.DB.First(&modules[1], modules[1].ID).Error)
	assert.Equal(t, 1, modules[1].OrderIndex)

	code, _ = do(t, app, fiber.MethodPut, base+"/modules/reorder", adminToken, map[string][]uint{
		"module_ids": {modules[0].ID, 9999},
	})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = do(t, app, fiber.MethodPost, fmt.Sprintf("%s/module/%d/lesson", base, modules[0].ID), adminToken,
		map[string]interface{}{"title": "Hello world", "is_free_preview": true})
	require.Equal(t, fiber.StatusCreated, code, body.Message)
	var lesson courseModels.Lesson
	body.decode(t, &lesson)
	assert.False(t, lesson.IsPublished)

	code, _ = do(t, app, fiber.MethodPost, fmt.Sprintf("/admin/lesson/%d/publish", lesson.ID), adminToken, map[string]bool{"published": true})
	require.Equal(t, fiber.StatusOK, code)
	code, _ = do(t, app, fiber.MethodPost, base+"/publish", adminToken, map[string]bool{"published": true})
	require.Equal(t, fiber.StatusOK, code)

	code, body = do(t, app, fiber.MethodGet, "/course/list", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var catalog struct {
		Courses []courseModels.Course `json:"courses"`
	}
	body.decode(t, &catalog)
	require.Len(t, catalog.Courses, 1)
	assert.Equal(t, course.ID, catalog.Courses[0].ID)

	code, _ = do(t, app, fiber.MethodPost, base+"/enroll", adminToken, map[string]uint{"user_id": user.ID})
	require.Equal(t, fiber.StatusCreated, code)
	var enrollment courseModels.Enrollment
	require.NoError(t, env.DB.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error)
	assert.Equal(t, courseModels.SourceAdmin, enrollment.Source)

	code, _ = do(t, app, fiber.MethodDelete, fmt.Sprintf("%s/enroll/%d", base, user.ID), adminToken, nil)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, env.DB.First(&enrollment, enrollment.ID).Error)
	assert.Equal(t, courseModels.EnrollmentRevoked, enrollment.Status)
}

func TestLessonVisibilityRefreshesCourseAndProgress(t *testing.T) {
	env, app := newApp(t)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	user := env.CreateUser(t, "Student", "student@example.com", models.RoleUser)
	adminToken := env.Token(t, admin)
	fixture := env.CreateCourse(t, "Shrinking Course", "0", 2)
	enrollment := env.Enroll(t, user.ID, fixture.Course.ID)
	require.NoError(t, env.DB.Create(&courseModels.LessonProgress{
		UserID: user.ID, LessonID: fixture.Lessons[0].ID, CourseID: fixture.Course.ID, Completed: true,
	}).Error)

	code, _ := do(t, app, fiber.MethodPost, fmt.Sprintf("/admin/lesson/%d/publish", fixture.Lessons[1].ID), adminToken,
		map[string]bool{"published": false})
	require.Equal(t, fiber.StatusOK, code)

	require.NoError(t, env.DB.First(&enrollment, enrollment.ID).Error)
	assert.Equal(t, 1, enrollment.TotalLessons)
	assert.Equal(t, 100.0, enrollment.Progress)
	assert.Equal(t, courseModels.EnrollmentCompleted, enrollment.Status)
	var certs int64
	env.DB.Model(&courseModels.Certificate{}).Where("user_id = ? AND course_id = ?", user.ID, fixture.Course.ID).Count(&certs)
	assert.EqualValues(t, 1, certs)

	var course courseModels.Course
	require.NoError(t, env.DB.First(&course, fixture.Course.ID).Error)
	assert.True(t, course.IsPublished)
	assert.EqualValues(t, 60, course.DurationSeconds)

	code, _ = do(t, app, fiber.MethodDelete, fmt.Sprintf("/admin/lesson/%d", fixture.Lessons[0].ID), adminToken, nil)
	require.Equal(t, fiber.StatusOK, code)

	require.NoError(t, env.DB.First(&course, fixture.Course.ID).Error)
	assert.False(t, course.IsPublished, "no published lesson left")
	assert.Equal(t, courseModels.StatusDraft, course.Status)
	require.NoError(t, env.DB.First(&enrollment, enrollment.ID).Error)
	assert.Equal(t, 0, enrollment.TotalLessons)

	code, _ = do(t, app, fiber.MethodGet, "/course/"+fixture.Course.Slug, "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestDashboardStats(t *testing.T) {
	env, app := newApp(t)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	user := env.CreateUser(t, "Buyer", "buyer@example.com", models.RoleUser)
	fixture := env.CreateCourse(t, "Bestseller", "25.50", 1)
	env.Enroll(t, user.ID, fixture.Course.ID)

	paidAt := time.Now()
	require.NoError(t, env.DB.Create(&models.Order{
		Reference: "ord-1", UserID: user.ID, CourseID: fixture.Course.ID,
		Amount: fixture.Course.Price, Currency: "usd", Status: models.OrderPaid, PaidAt: &paidAt,
	}).Error)

	code, _ := do(t, app, fiber.MethodGet, "/admin/dashboard/stats", env.Token(t, user), nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body := do(t, app, fiber.MethodGet, "/admin/dashboard/stats", env.Token(t, admin), nil)
	require.Equal(t, fiber.StatusOK, code)
	var stats struct {
		TotalUsers       int64  `json:"total_users"`
		PublishedCourses int64  `json:"published_courses"`
		TotalEnrollments int64  `json:"total_enrollments"`
		TotalRevenue     string `json:"total_revenue"`
		RevenueThisMonth string `json:"revenue_this_month"`
		TopCourses       []struct {
			ID uint `json:"id"`
		} `json:"top_courses"`
	}
	body.decode(t, &stats)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.PublishedCourses)
	assert.EqualValues(t, 1, stats.TotalEnrollments)
	assert.Equal(t, "25.50", stats.TotalRevenue)
	assert.Equal(t, "25.50", stats.RevenueThisMonth)
	require.NotEmpty(t, stats.TopCourses)
	assert.Equal(t, fixture.Course.ID, stats.TopCourses[0].ID)
}

func TestBlockedUserIsRejectedWithExistingToken(t *testing.T) {
	env, app := newApp(t)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	user := env.CreateUser(t, "Mallory", "mallory@example.com", models.RoleUser)
	adminToken := env.Token(t, admin)
	token := env.Token(t, user)
	paid := env.CreateCourse(t, "Paid Go", "49.00", 2)
	free := env.CreateCourse(t, "Free Go", "0", 1)
	blockPath := fmt.Sprintf("/admin/user/%d/block", user.ID)

	code, _ := do(t, app, fiber.MethodPut, fmt.Sprintf("/admin/user/%d/block", admin.ID), adminToken, map[string]bool{"blocked": true})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body := do(t, app, fiber.MethodPut, blockPath, adminToken, map[string]bool{"blocked": true})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "User blocked successfully!", body.Message)

	requests := []struct {
		method, path string
		body         interface{}
	}{
		{fiber.MethodPost, fmt.Sprintf("/course/%d/enroll", free.Course.ID), nil},
		{fiber.MethodGet, fmt.Sprintf("/course/%d/lesson/%d", paid.Course.ID, paid.Lessons[0].ID), nil},
		{fiber.MethodPost, "/checkout/session", map[string]uint{"course_id": paid.Course.ID}},
		{fiber.MethodGet, "/user/profile", nil},
		{fiber.MethodGet, "/support/list", nil},
	}
	for _, r := range requests {
		code, body = do(t, app, r.method, r.path, token, r.body)
		assert.Equal(t, fiber.StatusForbidden, code, r.path)
		assert.Equal(t, "Your account is blocked!", body.Message, r.path)
	}
	assert.Empty(t, env.Payment.Sessions)

	code, _ = do(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": user.Email, "password": testutil.Password})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body = do(t, app, fiber.MethodPut, blockPath, adminToken, map[string]bool{"blocked": false})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "User unblocked successfully!", body.Message)

	code, _ = do(t, app, fiber.MethodPost, fmt.Sprintf("/course/%d/enroll", free.Course.ID), token, nil)
	assert.Equal(t, fiber.StatusCreated, code)
}

func TestAdminUserManagement(t *testing.T) {
	env, app := newApp(t)
	admin := env.CreateUser(t, "Root", "root@example.com", models.RoleAdmin)
	alice := env.CreateUser(t, "Alice", "alice@example.com", models.RoleUser)
	bob := env.CreateUser(t, "Bob", "bob@example.com", models.RoleAdmin)
	adminToken := env.Token(t, admin)

	code, _ := do(t, app, fiber.MethodGet, "/admin/user/list", env.Token(t, alice), nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	type userPage struct {
		Users      []models.User `json:"users"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}

	code, body := do(t, app, fiber.MethodGet, "/admin/user/list?search=ALI", adminToken, nil)
	require.Equal(t, fiber.StatusOK, code)
	var page userPage
	body.decode(t, &page)
	require.Len(t, page.Users, 1)
	assert.Equal(t, alice.Email, page.Users[0].Email)
	assert.EqualValues(t, 1, page.Pagination.Total)

	code, body = do(t, app, fiber.MethodGet, "/admin/user/list?role=admin", adminToken, nil)
	require.Equal(t, fiber.StatusOK, code)
	page = userPage{}
	body.decode(t, &page)
	assert.EqualValues(t, 2, page.Pagination.Total)

	code, _ = do(t, app, fiber.MethodGet, "/admin/user/list?role=ROOT", adminToken, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	code, _ = do(t, app, fiber.MethodPut, fmt.Sprintf("/admin/user/%d/role", admin.ID), adminToken, map[string]string{"role": "USER"})
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = do(t, app, fiber.MethodPut, fmt.Sprintf("/admin/user/%d/role", bob.ID), adminToken, map[string]string{"role": "ROOT"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	bobToken := env.Token(t, bob)
	code, _ = do(t, app, fiber.MethodGet, "/admin/user/list", bobToken, nil)
	require.Equal(t, fiber.StatusOK, code)

	code, _ = do(t, app, fiber.MethodPut, fmt.Sprintf("/admin/user/%d/role", bob.ID), adminToken, map[string]string{"role": "USER"})
	require.Equal(t, fiber.StatusOK, code)

	code, body = do(t, app, fiber.MethodGet, fmt.Sprintf("/admin/user/%d/permissions", bob.ID), adminToken, nil)
	require.Equal(t, fiber.StatusOK, code)
	var perms []models.Permission
	body.decode(t, &perms)
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		assert.Equal(t, models.RoleUser, p.Role)
		names = append(names, p.Permission)
	}
	assert.ElementsMatch(t, models.DefaultPermissions(models.RoleUser), names)

	code, _ = do(t, app, fiber.MethodGet, "/admin/user/list", bobToken, nil)
	assert.Equal(t, fiber.StatusForbidden, code, "a demoted admin's old token loses admin access")

	code, _ = do(t, app, fiber.MethodPut, fmt.Sprintf("/admin/user/%d/role", alice.ID), adminToken, map[string]string{"role": "ADMIN"})
	require.Equal(t, fiber.StatusOK, code)
	code, _ = do(t, app, fiber.MethodGet, "/admin/dashboard/stats", env.Token(t, alice), nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestUserEnrollmentsAndOrders(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Grace", "grace@example.com", models.RoleUser)
	other := env.CreateUser(t, "Other", "other@example.com", models.RoleUser)
	token := env.Token(t, user)
	free := env.CreateCourse(t, "Free Go", "0", 1)
	paid := env.CreateCourse(t, "Paid Go", "30.00", 1)
	revoked := env.CreateCourse(t, "Dropped Go", "0", 1)

	env.Enroll(t, user.ID, free.Course.ID)
	env.Enroll(t, user.ID, paid.Course.ID)
	env.Enroll(t, user.ID, revoked.Course.ID)
	env.Enroll(t, other.ID, free.Course.ID)
	require.NoError(t, utils.RevokeEnrollment(env.DB, user.ID, revoked.Course.ID))

	paidAt := time.Now()
	for _, o := range []models.Order{
		{Reference: "ord-paid", UserID: user.ID, CourseID: paid.Course.ID, Amount: paid.Course.Price, Currency: "usd", Status: models.OrderPaid, PaidAt: &paidAt},
		{Reference: "ord-expired", UserID: user.ID, CourseID: paid.Course.ID, Amount: paid.Course.Price, Currency: "usd", Status: models.OrderExpired},
		{Reference: "ord-other", UserID: other.ID, CourseID: paid.Course.ID, Amount: paid.Course.Price, Currency: "usd", Status: models.OrderPaid},
	} {
		o := o
		require.NoError(t, env.DB.Create(&o).Error)
	}

	code, body := do(t, app, fiber.MethodGet, "/user/enrollments", token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var enrollments struct {
		Enrollments []struct {
			CourseID    uint   `json:"course_id"`
			CourseTitle string `json:"course_title"`
			CourseSlug  string `json:"course_slug"`
			Status      string `json:"status"`
		} `json:"enrollments"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	body.decode(t, &enrollments)
	assert.EqualValues(t, 2, enrollments.Pagination.Total)
	titles := map[string]string{}
	for _, e := range enrollments.Enrollments {
		titles[e.CourseTitle] = e.CourseSlug
		assert.Equal(t, courseModels.EnrollmentEnrolled, e.Status)
	}
	assert.Equal(t, map[string]string{"Free Go": free.Course.Slug, "Paid Go": paid.Course.Slug}, titles)

	code, body = do(t, app, fiber.MethodGet, "/user/orders?limit=1", token, nil)
	require.Equal(t, fiber.StatusOK, code)
	var orders struct {
		Orders []struct {
			Reference   string     `json:"reference"`
			CourseTitle string     `json:"course_title"`
			Amount      string     `json:"amount"`
			Status      string     `json:"status"`
			PaidAt      *time.Time `json:"paid_at"`
		} `json:"orders"`
		Pagination struct {
			Total int64 `json:"total"`
			Limit int   `json:"limit"`
		} `json:"pagination"`
	}
	body.decode(t, &orders)
	assert.EqualValues(t, 2, orders.Pagination.Total)
	assert.Equal(t, 1, orders.Pagination.Limit)
	require.Len(t, orders.Orders, 1)
	assert.Equal(t, "Paid Go", orders.Orders[0].CourseTitle)
	assert.Equal(t, "30", orders.Orders[0].Amount)

	code, body = do(t, app, fiber.MethodGet, "/user/orders", token, nil)
	require.Equal(t, fiber.StatusOK, code)
	body.decode(t, &orders)
	refs := []string{}
	for _, o := range orders.Orders {
		refs = append(refs, o.Reference)
	}
	assert.ElementsMatch(t, []string{"ord-paid", "ord-expired"}, refs)
}

func TestPaymentWebhook_ExpiredSessionAndPartialRefund(t *testing.T) {
	env, app := newApp(t)
	user := env.CreateUser(t, "Rob", "rob@example.com", models.RoleUser)
	token := env.Token(t, user)
	fixture := env.CreateCourse(t, "Concurrency in Go", "49.00", 2)

	type created struct {
		Order models.Order `json:"order"`
	}
	code, body := do(t, app, fiber.MethodPost, "/checkout/session", token, map[string]uint{"course_id": fixture.Course.ID})
	require.Equal(t, fiber.StatusCreated, code)
	var first created
	body.decode(t, &first)

	var result struct {
		EventID string `json:"event_id"`
		Status  string `json:"status"`
	}
	code, body = sendPaymentEvent(t, app, paymentEvent(t, "evt_expired_1", "checkout.session.expired", map[string]interface{}{
		"id":                  "cs_test_1",
		"client_reference_id": first.Order.Reference,
	}))
	require.Equal(t, fiber.StatusOK, code, body.Message)
	body.decode(t, &result)
	assert.Equal(t, "evt_expired_1", result.EventID)
	assert.Equal(t, models.EventProcessed, result.Status)

	var order models.Order
	require.NoError(t, env.DB.Where("reference = ?", first.Order.Reference).First(&order).Error)
	assert.Equal(t, models.OrderExpired, order.Status)

	code, body = do(t, app, fiber.MethodPost, "/checkout/session", token, map[string]uint{"course_id": fixture.Course.ID})
	require.Equal(t, fiber.StatusCreated, code, "an expired session is not reused")
	var second created
	body.decode(t, &second)
	assert.NotEqual(t, first.Order.Reference, second.Order.Reference)

	code, _ = sendPaymentEvent(t, app, paymentEvent(t, "evt_paid_2", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_test_2",
		"client_reference_id": second.Order.Reference,
		"payment_status":      "paid",
		"payment_intent":      "pi_2",
	}))
	require.Equal(t, fiber.StatusOK, code)

	code, body = sendPaymentEvent(t, app, paymentEvent(t, "evt_partial_1", "charge.refunded", map[string]interface{}{
		"id":             "ch_2",
		"payment_intent": "pi_2",
		"refunded":       false,
	}))
	require.Equal(t, fiber.StatusOK, code)
	result.Status = ""
	body.decode(t, &result)
	assert.Equal(t, models.EventIgnored, result.Status)

	require.NoError(t, env.DB.Where("reference = ?", second.Order.Reference).First(&order).Error)
	assert.Equal(t, models.OrderPaid, order.Status)
	code, _ = do(t, app, fiber.MethodGet, fmt.Sprintf("/course/%d/lesson/%d", fixture.Course.ID, fixture.Lessons[1].ID), token, nil)
	assert.Equal(t, fiber.StatusOK, code, "partial refunds keep access")
}
