package webhookController

import (
	"academy/config"
	"academy/database"
	"academy/logger"
	"academy/middleware"
	"academy/models"
	courseModels "academy/models/course"
	"academy/utils"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventChargeRefunded    = "charge.refunded"
)

type paymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentStatus     string            `json:"payment_status"`
	PaymentIntent     string            `json:"payment_intent"`
	Metadata          map[string]string `json:"metadata"`
}

type chargeObject struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
	Refunded      bool   `json:"refunded"`
}

// paymentOutcome is what a payment event did, and which emails follow from it
type paymentOutcome struct {
	status  string
	order   *models.Order
	granted bool
}

// PaymentWebhook receives payment provider events signed in the Stripe-Signature header
func PaymentWebhook(c *fiber.Ctx) error {
	cfg := config.AppConfig
	if err := verify(c, models.ProviderPayment, "Stripe-Signature", cfg.PaymentWebhookSecret, cfg.WebhookTolerance); err != nil {
		return err
	}

	var event paymentEvent
	if err := json.Unmarshal(c.Body(), &event); err != nil || event.ID == "" || event.Type == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Malformed event payload!", nil)
	}

	row, err := claim(c.UserContext(), models.ProviderPayment, event.ID, event.Type, c.Body())
	if err != nil {
		logger.Log.Error("storing payment event", zap.String("event_id", event.ID), zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store event!", nil)
	}
	if row == nil {
		return alreadyProcessed(c)
	}

	db := database.Database.Db
	var outcome paymentOutcome
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		outcome, err = applyPaymentEvent(tx, event)
		return err
	})
	if err != nil {
		logger.Log.Error("processing payment event",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Error(err))
		finish(db, row, models.EventFailed, err)
		release(models.ProviderPayment, event.ID)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process event!", nil)
	}
	finish(db, row, outcome.status, nil)

	if outcome.granted {
		sendPurchaseEmails(db, outcome.order)
	}

	logger.Log.Info("payment event handled",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("status", outcome.status))
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event received!", fiber.Map{
		"event_id": event.ID,
		"status":   outcome.status,
	})
}

func applyPaymentEvent(tx *gorm.DB, event paymentEvent) (paymentOutcome, error) {
	switch event.Type {
	case EventCheckoutCompleted:
		var session checkoutSessionObject
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return paymentOutcome{}, err
		}
		return completeCheckout(tx, session)
	case EventCheckoutExpired:
		var session checkoutSessionObject
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return paymentOutcome{}, err
		}
		return expireCheckout(tx, session)
	case EventChargeRefunded:
		var charge chargeObject
		if err := json.Unmarshal(event.Data.Object, &charge); err != nil {
			return paymentOutcome{}, err
		}
		return refundCharge(tx, charge)
	}
	return paymentOutcome{status: models.EventIgnored}, nil
}

// orderForSession finds the order by client_reference_id, falling back to metadata[order_id]
func orderForSession(tx *gorm.DB, session checkoutSessionObject) (*models.Order, error) {
	var order models.Order
	if session.ClientReferenceID != "" {
		err := tx.Where("reference = ?", session.ClientReferenceID).First(&order).Error
		if err == nil {
			return &order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if raw := session.Metadata["order_id"]; raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			err := tx.Where("id = ?", id).First(&order).Error
			if err == nil {
				return &order, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}
	return nil, nil
}

func completeCheckout(tx *gorm.DB, session checkoutSessionObject) (paymentOutcome, error) {
	order, err := orderForSession(tx, session)
	if err != nil {
		return paymentOutcome{}, err
	}
	if order == nil {
		logger.Log.Warn("checkout completed for unknown order", zap.String("session_id", session.ID))
		return paymentOutcome{status: models.EventIgnored}, nil
	}
	if session.PaymentStatus != "paid" {
		return paymentOutcome{status: models.EventIgnored, order: order}, nil
	}
	switch order.Status {
	case models.OrderPaid:
		return paymentOutcome{status: models.EventProcessed, order: order}, nil
	case models.OrderRefunded:
		return paymentOutcome{status: models.EventIgnored, order: order}, nil
	}

	// an order expired locally can still be paid on the provider's page
	now := time.Now()
	updates := map[string]interface{}{
		"status":         models.OrderPaid,
		"paid_at":        &now,
		"failure_reason": "",
	}
	if session.PaymentIntent != "" {
		updates["payment_intent_id"] = session.PaymentIntent
	}
	if session.ID != "" {
		updates["provider_session_id"] = session.ID
	}
	if err := tx.Model(order).Updates(updates).Error; err != nil {
		return paymentOutcome{}, err
	}

	orderID := order.ID
	_, err = utils.GrantEnrollment(tx, order.UserID, order.CourseID, courseModels.SourcePurchase, &orderID)
	if errors.Is(err, utils.ErrAlreadyEnrolled) {
		return paymentOutcome{status: models.EventProcessed, order: order}, nil
	}
	if err != nil {
		return paymentOutcome{}, err
	}
	return paymentOutcome{status: models.EventProcessed, order: order, granted: true}, nil
}

func expireCheckout(tx *gorm.DB, session checkoutSessionObject) (paymentOutcome, error) {
	order, err := orderForSession(tx, session)
	if err != nil {
		return paymentOutcome{}, err
	}
	if order == nil || order.Status != models.OrderPending {
		return paymentOutcome{status: models.EventIgnored, order: order}, nil
	}
	if err := tx.Model(order).Updates(map[string]interface{}{
		"status":         models.OrderExpired,
		"failure_reason": "checkout session expired",
	}).Error; err != nil {
		return paymentOutcome{}, err
	}
	return paymentOutcome{status: models.EventProcessed, order: order}, nil
}

func refundCharge(tx *gorm.DB, charge chargeObject) (paymentOutcome, error) {
	if charge.PaymentIntent == "" || !charge.Refunded {
		// partial refunds keep access
		return paymentOutcome{status: models.EventIgnored}, nil
	}

	var order models.Order
	err := tx.Where("payment_intent_id = ?", charge.PaymentIntent).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return paymentOutcome{status: models.EventIgnored}, nil
	}
	if err != nil {
		return paymentOutcome{}, err
	}
	if order.Status == models.OrderRefunded {
		return paymentOutcome{status: models.EventProcessed, order: &order}, nil
	}

	now := time.Now()
	if err := tx.Model(&order).Updates(map[string]interface{}{
		"status":      models.OrderRefunded,
		"refunded_at": &now,
	}).Error; err != nil {
		return paymentOutcome{}, err
	}
	if err := utils.RevokeEnrollment(tx, order.UserID, order.CourseID); err != nil {
		return paymentOutcome{}, err
	}
	return paymentOutcome{status: models.EventProcessed, order: &order}, nil
}

func sendPurchaseEmails(db *gorm.DB, order *models.Order) {
	var user models.User
	if err := db.Where("id = ?", order.UserID).First(&user).Error; err != nil {
		return
	}
	var course courseModels.Course
	if err := db.Where("id = ?", order.CourseID).First(&course).Error; err != nil {
		return
	}
	utils.SendPurchaseReceiptEmail(user.Email, user.Name, course.Title,
		order.Amount.StringFixed(2), order.Currency, order.Reference)
	utils.SendEnrollmentEmail(user.Email, user.Name, course.Title)
}
