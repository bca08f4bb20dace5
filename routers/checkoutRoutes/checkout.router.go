package checkoutRoutes

import (
	checkoutController "academy/controllers/checkout"
	"academy/middleware"
	"academy/models"
	"academy/validators"
	checkoutValidator "academy/validators/checkout"

	"github.com/gofiber/fiber/v2"
)

func SetupCheckoutRoutes(app *fiber.App) {
	checkoutGroup := app.Group("/checkout", middleware.JWTMiddleware, middleware.ActiveUser)

	checkoutGroup.Post("/session", checkoutValidator.CreateSession(), checkoutController.CreateCheckoutSession)
	checkoutGroup.Get("/order/:reference", checkoutValidator.OrderReference(), checkoutController.GetOrder)

	orders := app.Group("/admin/orders", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermManageOrders))
	orders.Get("/", validators.Pagination(), checkoutValidator.OrderList(), checkoutController.AdminListOrders)
	orders.Post("/:reference/refund", checkoutValidator.OrderReference(), checkoutController.AdminRefundOrder)
}
