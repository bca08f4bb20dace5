package checkoutController

import (
	"academy/config"
	"academy/database"
	"academy/integrations/payment"
	"academy/logger"
	"academy/middleware"
	"academy/models"
	courseModels "academy/models/course"
	"academy/utils"
	"academy/validators"
	checkoutValidator "academy/validators/checkout"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCheckoutSession opens a hosted checkout for a paid course.
// A still-valid PENDING order for the same course is handed back instead of creating a new one.
func CreateCheckoutSession(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	reqData, ok := c.Locals("validatedCheckout").(*checkoutValidator.CheckoutRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	cfg := config.AppConfig

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", reqData.CourseID, false, true).
		First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if course.IsFree() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This is a free course, enroll directly!", nil)
	}

	if enrollment, err := utils.FindEnrollment(db, userID, course.ID); err == nil && enrollment.Active() {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You are already enrolled in this course!", nil)
	}

	var pending models.Order
	err := db.Where("user_id = ? AND course_id = ? AND status = ? AND checkout_url <> '' AND created_at > ?",
		userID, course.ID, models.OrderPending, time.Now().Add(-cfg.OrderTTL)).
		Order("created_at desc").First(&pending).Error
	if err == nil && pending.Amount.Equal(course.Price) {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Checkout session already open!", fiber.Map{
			"checkout_url": pending.CheckoutURL,
			"order":        pending,
		})
	}

	order := models.Order{
		Reference: uuid.NewString(),
		UserID:    userID,
		CourseID:  course.ID,
		Amount:    course.Price,
		Currency:  course.Currency,
		Status:    models.OrderPending,
	}
	if order.Currency == "" {
		order.Currency = cfg.PaymentCurrency
	}
	if err := db.Create(&order).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create order!", nil)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 20*time.Second)
	defer cancel()
	session, err := payment.Provider.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		OrderID:     order.ID,
		Reference:   order.Reference,
		CourseTitle: course.Title,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Email:       user.Email,
		SuccessURL:  fmt.Sprintf("%s/checkout/success?order=%s", cfg.FrontendURL, order.Reference),
		CancelURL:   fmt.Sprintf("%s/courses/%s?checkout=cancelled", cfg.FrontendURL, course.Slug),
	})
	if err != nil {
		logger.Log.Error("creating checkout session",
			zap.String("reference", order.Reference),
			zap.Uint("course_id", course.ID),
			zap.Error(err))
		db.Model(&order).Updates(map[string]interface{}{
			"status":         models.OrderFailed,
			"failure_reason": err.Error(),
		})
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Payment provider is unavailable, please try again!", nil)
	}

	if err := db.Model(&order).Updates(map[string]interface{}{
		"provider_session_id": session.ID,
		"checkout_url":        session.URL,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save checkout session!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Checkout session created!", fiber.Map{
		"checkout_url": session.URL,
		"order":        order,
	})
}

// GetOrder returns an order of the caller by reference
func GetOrder(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	reference := c.Locals("reference").(string)

	var order models.Order
	if err := database.Database.Db.Where("reference = ? AND user_id = ?", reference, userID).
		First(&order).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Order not found!", nil)
	}

	var course courseModels.Course
	database.Database.Db.Select("id, title, slug, thumbnail_url").Where("id = ?", order.CourseID).First(&course)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Order fetched successfully!", fiber.Map{
		"order":  order,
		"course": course,
	})
}

func AdminListOrders(c *fiber.Ctx) error {
	query := c.Locals("validatedList").(*checkoutValidator.OrderListQuery)
	p := validators.PaginationFrom(c)
	db := database.Database.Db.Model(&models.Order{})

	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to count orders!", nil)
	}

	var orders []models.Order
	if err := db.Scopes(utils.Paginate(p)).Order("created_at desc").Find(&orders).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Orders fetched successfully!",
		utils.PaginatedResponse("orders", orders, total, p))
}

// AdminRefundOrder asks the provider for a refund. The order and enrollment change when
// the charge.refunded webhook arrives.
func AdminRefundOrder(c *fiber.Ctx) error {
	reference := c.Locals("reference").(string)

	var order models.Order
	if err := database.Database.Db.Where("reference = ?", reference).First(&order).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Order not found!", nil)
	}
	if order.Status != models.OrderPaid || order.PaymentIntentID == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only paid orders can be refunded!", nil)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 20*time.Second)
	defer cancel()
	refund, err := payment.Provider.Refund(ctx, order.PaymentIntentID)
	if err != nil {
		logger.Log.Error("refunding order", zap.String("reference", order.Reference), zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Refund request failed!", nil)
	}

	logger.Log.Info("refund requested",
		zap.String("reference", order.Reference),
		zap.String("refund_id", refund.ID),
		zap.String("status", refund.Status))
	return middleware.JsonResponse(c, fiber.StatusAccepted, true, "Refund requested!", fiber.Map{
		"order":  order,
		"refund": refund,
	})
}
