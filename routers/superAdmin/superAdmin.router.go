package superAdminRoutes

import (
	superAdminController "academy/controllers/superAdmin"
	"academy/middleware"
	"academy/models"
	"academy/validators"
	userValidator "academy/validators/userValidator"

	"github.com/gofiber/fiber/v2"
)

func SetupSuperAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/user", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(models.PermManageUsers))

	adminGroup.Get("/list", validators.Pagination(), userValidator.UserList(), superAdminController.UserList)
	adminGroup.Put("/:id/role", validators.IDParams("id"), userValidator.ChangeRole(), superAdminController.ChangeUserRole)
	adminGroup.Put("/:id/block", validators.IDParams("id"), userValidator.BlockUser(), superAdminController.BlockUser)
	adminGroup.Get("/:id/permissions", validators.IDParams("id"), superAdminController.PermissionsByUserID)
}
