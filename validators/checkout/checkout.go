package checkoutValidator

import (
	"academy/models"
	"academy/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CheckoutRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

type OrderListQuery struct {
	Status string `query:"status"`
}

var orderStatuses = []string{
	models.OrderPending, models.OrderPaid, models.OrderFailed, models.OrderExpired, models.OrderRefunded,
}

func CreateSession() fiber.Handler {
	return validators.Body[CheckoutRequest]("validatedCheckout", nil)
}

// OrderReference validates the :reference parameter
func OrderReference() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref := strings.TrimSpace(c.Params("reference"))
		if _, err := uuid.Parse(ref); err != nil {
			return validators.Invalid(c, "reference", "Invalid order reference!")
		}
		c.Locals("reference", ref)
		return c.Next()
	}
}

func OrderList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := new(OrderListQuery)
		if err := c.QueryParser(query); err != nil {
			return validators.BadQuery(c)
		}
		query.Status = strings.ToUpper(strings.TrimSpace(query.Status))
		if query.Status != "" && !validators.Contains(orderStatuses, query.Status) {
			return validators.Invalid(c, "status", "Invalid order status!")
		}
		c.Locals("validatedList", query)
		return c.Next()
	}
}
