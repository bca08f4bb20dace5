package crmRoutes

import (
	crmController "academy/controllers/crm"
	"academy/middleware"
	"academy/models"
	"academy/validators"
	crmValidator "academy/validators/crm"

	"github.com/gofiber/fiber/v2"
)

func SetupCRMRoutes(app *fiber.App) {
	app.Post("/consultation/request", middleware.OptionalJWT, crmValidator.RequestConsultation(), crmController.RequestConsultation)

	crm := app.Group("/admin/crm", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermManageCRM))
	crm.Get("/consultations", validators.Pagination(), crmValidator.ConsultationList(), crmController.ConsultationList)
	crm.Get("/stats", crmController.ConsultationStats)
	crm.Get("/consultations/:id", validators.IDParams("id"), crmController.GetConsultation)
	crm.Put("/consultations/:id", validators.IDParams("id"), crmValidator.UpdateConsultation(), crmController.UpdateConsultation)
	crm.Delete("/consultations/:id", validators.IDParams("id"), crmController.DeleteConsultation)
}
