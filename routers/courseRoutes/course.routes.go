package courseRoutes

import (
	controllers "academy/controllers/course"
	"academy/middleware"
	"academy/validators"
	courseValidator "academy/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up the public catalog and the course player routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Catalog
	courseGroup.Get("/list", validators.Pagination(), courseValidator.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id/reviews", validators.IDParams("id"), validators.Pagination(), controllers.GetCourseReviews)
	courseGroup.Get("/:slug", middleware.OptionalJWT, courseValidator.CourseSlug(), controllers.GetCourseBySlug)

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, middleware.ActiveUser, validators.IDParams("id"), controllers.EnrollInCourse)

	// Player
	courseGroup.Get("/:course_id/lesson/:lesson_id", middleware.JWTMiddleware, middleware.ActiveUser,
		validators.IDParams("course_id", "lesson_id"), controllers.GetLesson)
	courseGroup.Post("/:course_id/lesson/:lesson_id/progress", middleware.JWTMiddleware, middleware.ActiveUser,
		validators.IDParams("course_id", "lesson_id"), courseValidator.UpdateProgress(), controllers.UpdateLessonProgress)
	courseGroup.Get("/:course_id/progress", middleware.JWTMiddleware, middleware.ActiveUser, validators.IDParams("course_id"), controllers.GetCourseProgress)

	// Reviews
	courseGroup.Post("/:id/review", middleware.JWTMiddleware, middleware.ActiveUser, validators.IDParams("id"), courseValidator.Review(), controllers.CreateReview)
	courseGroup.Put("/:id/review", middleware.JWTMiddleware, middleware.ActiveUser, validators.IDParams("id"), courseValidator.Review(), controllers.UpdateReview)
	courseGroup.Delete("/:id/review", middleware.JWTMiddleware, middleware.ActiveUser, validators.IDParams("id"), controllers.DeleteReview)

	// Certificates
	app.Get("/certificate/verify/:number", controllers.VerifyCertificate)
}
