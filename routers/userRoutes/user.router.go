package userProfileRoutes

import (
	userProfileController "academy/controllers/userControllers"
	"academy/middleware"
	"academy/validators"
	userProfileValidator "academy/validators/userValidator"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user", middleware.JWTMiddleware, middleware.ActiveUser)

	userGroup.Get("/profile", userProfileController.GetProfile)
	userGroup.Put("/profile", userProfileValidator.UpdateProfile(), userProfileController.UpdateProfile)
	userGroup.Get("/enrollments", validators.Pagination(), userProfileController.GetUserEnrollments)
	userGroup.Get("/certificates", userProfileController.GetUserCertificates)
	userGroup.Get("/orders", validators.Pagination(), userProfileController.GetUserOrders)
}
