package webhookController

import (
	"academy/cache"
	"academy/database"
	"academy/logger"
	"academy/middleware"
	"academy/models"
	"academy/webhook"
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// idempotencyTTL bounds how long a delivered event id is remembered by the cache
const idempotencyTTL = 72 * time.Hour

func idempotencyKey(provider, eventID string) string {
	return provider + ":" + eventID
}

// verify checks the signature header against the raw request body
func verify(c *fiber.Ctx, provider, header, secret string, tolerance time.Duration) error {
	err := webhook.Verify(c.Body(), c.Get(header), secret, tolerance, time.Now())
	if err == nil {
		return nil
	}
	logger.Log.Warn("rejected webhook",
		zap.String("provider", provider),
		zap.String("ip", c.IP()),
		zap.Error(err))
	msg := "Invalid webhook signature!"
	if errors.Is(err, webhook.ErrTimestampTolerance) {
		msg = "Webhook timestamp outside tolerance!"
	}
	return middleware.JsonResponse(c, fiber.StatusBadRequest, false, msg, nil)
}

// claim marks the event as in flight. It returns the stored event row, or nil when the event
// was already handled.
func claim(ctx context.Context, provider, eventID, eventType string, payload []byte) (*models.WebhookEvent, error) {
	key := idempotencyKey(provider, eventID)
	fresh, err := cache.WebhookEvents.MarkProcessed(ctx, key, idempotencyTTL)
	if err != nil {
		// the database row still guards against double processing
		logger.Log.Warn("idempotency cache unavailable", zap.String("key", key), zap.Error(err))
		fresh = true
	}
	if !fresh {
		return nil, nil
	}

	db := database.Database.Db
	var event models.WebhookEvent
	err = db.Where("provider = ? AND event_id = ?", provider, eventID).
		Attrs(models.WebhookEvent{
			Provider:  provider,
			EventID:   eventID,
			EventType: eventType,
			Payload:   datatypes.JSON(payload),
			Status:    models.EventReceived,
		}).FirstOrCreate(&event).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = db.Where("provider = ? AND event_id = ?", provider, eventID).First(&event).Error
	}
	if err != nil {
		release(provider, eventID)
		return nil, err
	}
	if event.Done() {
		return nil, nil
	}
	return &event, nil
}

// release forgets the event in the cache so a provider retry is processed again
func release(provider, eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.WebhookEvents.Release(ctx, idempotencyKey(provider, eventID)); err != nil {
		logger.Log.Warn("releasing idempotency key", zap.String("event_id", eventID), zap.Error(err))
	}
}

// finish stores the final status of an event row
func finish(db *gorm.DB, event *models.WebhookEvent, status string, procErr error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"processed_at": &now,
		"error":        "",
	}
	if procErr != nil {
		updates["error"] = procErr.Error()
	}
	if err := db.Model(event).Updates(updates).Error; err != nil {
		logger.Log.Error("updating webhook event",
			zap.String("provider", event.Provider),
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}
}

func alreadyProcessed(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event already processed!", fiber.Map{
		"already_processed": true,
	})
}
