package server

import (
	"academy/config"
	"academy/database"
	"academy/middleware"
	authRoutes "academy/routers/authRoutes"
	checkoutRoutes "academy/routers/checkoutRoutes"
	courseRoutes "academy/routers/courseRoutes"
	crmRoutes "academy/routers/crmRoutes"
	superAdminRoutes "academy/routers/superAdmin"
	supportRoutes "academy/routers/supportRoutes"
	userProfileRoutes "academy/routers/userRoutes"
	webhookRoutes "academy/routers/webhookRoutes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the Fiber application with every route registered
func NewApp(cfg *config.Config, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "academy",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    4 * 1024 * 1024,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	if accessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(); err != nil {
			return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Database unavailable!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	authRoutes.SetupAuthRoutes(app)
	userProfileRoutes.SetupUserRoutes(app)
	superAdminRoutes.SetupSuperAdminRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupAdminCourseRoutes(app)
	checkoutRoutes.SetupCheckoutRoutes(app)
	webhookRoutes.SetupWebhookRoutes(app)
	supportRoutes.SetupSupportRoutes(app)
	crmRoutes.SetupCRMRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Route not found!", nil)
	})

	return app
}
