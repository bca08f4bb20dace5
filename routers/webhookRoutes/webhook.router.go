package webhookRoutes

import (
	webhookController "academy/controllers/webhooks"

	"github.com/gofiber/fiber/v2"
)

// SetupWebhookRoutes registers the provider callbacks. They authenticate by signature, not JWT.
func SetupWebhookRoutes(app *fiber.App) {
	hooks := app.Group("/webhooks")

	hooks.Post("/payment", webhookController.PaymentWebhook)
	hooks.Post("/mux", webhookController.MuxWebhook)
}
