package authRoutes

import (
	authControllers "academy/controllers/auth"
	"academy/middleware"
	"academy/validators"
	authValidators "academy/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), authControllers.Signup)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Get("/login/history", middleware.JWTMiddleware, middleware.ActiveUser, validators.Pagination(), authControllers.LoginHistoryList)
	authGroup.Put("/change/password", middleware.JWTMiddleware, middleware.ActiveUser, authValidators.ChangePassword(), authControllers.ChangePassword)
}
