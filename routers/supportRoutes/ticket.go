package supportRoutes

import (
	controller "academy/controllers/support"
	"academy/middleware"
	"academy/models"
	"academy/validators"
	validator "academy/validators/support"

	"github.com/gofiber/fiber/v2"
)

func SetupSupportRoutes(app *fiber.App) {
	support := app.Group("/support", middleware.JWTMiddleware, middleware.ActiveUser)
	admin := middleware.CheckPermissionMiddleware(models.PermManageSupport)
	user := middleware.CheckPermissionMiddleware(models.PermCreateTicket)

	support.Post("/create", user, validator.CreateSupportTicket(), controller.CreateSupportTicket)
	support.Get("/list", validators.Pagination(), validator.TicketList(), controller.TicketList)
	support.Post("/user-reply", validator.ReplyTicket(), controller.UserReplyTicket)
	support.Post("/user-close-ticket", validator.CloseTicket(), controller.UserCloseTicket)

	support.Get("/admin-list", admin, validators.Pagination(), validator.TicketList(), controller.AdminTicketList)
	support.Get("/admin-stats", admin, controller.AdminSupportStats)
	support.Post("/admin-reply", admin, validator.ReplyTicket(), controller.AdminReplyTicket)
	support.Post("/admin-close-ticket", admin, validator.CloseTicket(), controller.AdminCloseTicket)

	support.Get("/:id", validators.IDParams("id"), controller.GetTicket)
}
