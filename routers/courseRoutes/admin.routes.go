package courseRoutes

import (
	controllers "academy/controllers/course"
	"academy/middleware"
	"academy/models"
	"academy/validators"
	courseValidator "academy/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up all admin course management routes
func SetupAdminCourseRoutes(app *fiber.App) {
	manage := middleware.CheckPermissionMiddleware(models.PermManageCourses)
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, manage)

	// Course CRUD
	adminGroup.Post("/create", courseValidator.CreateCourse(), controllers.AdminCreateCourse)
	adminGroup.Get("/list", validators.Pagination(), courseValidator.AdminCourseList(), controllers.AdminGetAllCourses)
	adminGroup.Get("/:id", validators.IDParams("id"), controllers.AdminGetCourseDetails)
	adminGroup.Put("/:id", validators.IDParams("id"), courseValidator.UpdateCourse(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/:id", validators.IDParams("id"), controllers.AdminDeleteCourse)
	adminGroup.Post("/:id/publish", validators.IDParams("id"), courseValidator.Publish(), controllers.AdminPublishCourse)

	// Module Management
	adminGroup.Post("/:id/module", validators.IDParams("id"), courseValidator.CreateModule(), controllers.AdminCreateModule)
	adminGroup.Get("/:id/modules", validators.IDParams("id"), controllers.AdminListModules)
	adminGroup.Put("/:id/modules/reorder", validators.IDParams("id"), courseValidator.ReorderModules(), controllers.AdminReorderModules)
	adminGroup.Put("/:id/module/:module_id", validators.IDParams("id", "module_id"), courseValidator.UpdateModule(), controllers.AdminUpdateModule)
	adminGroup.Delete("/:id/module/:module_id", validators.IDParams("id", "module_id"), controllers.AdminDeleteModule)

	// Lesson Management
	adminGroup.Post("/:id/module/:module_id/lesson", validators.IDParams("id", "module_id"), courseValidator.CreateLesson(), controllers.AdminCreateLesson)
	adminGroup.Get("/:id/module/:module_id/lessons", validators.IDParams("id", "module_id"), controllers.AdminListLessons)

	lessonGroup := app.Group("/admin/lesson", middleware.JWTMiddleware, manage)
	lessonGroup.Put("/:id", validators.IDParams("id"), courseValidator.UpdateLesson(), controllers.AdminUpdateLesson)
	lessonGroup.Delete("/:id", validators.IDParams("id"), controllers.AdminDeleteLesson)
	lessonGroup.Post("/:id/publish", validators.IDParams("id"), courseValidator.Publish(), controllers.AdminPublishLesson)
	lessonGroup.Post("/:id/video/upload", validators.IDParams("id"), controllers.AdminCreateVideoUpload)

	// Enrollment & Progress Tracking
	adminGroup.Get("/:id/enrollments", validators.IDParams("id"), validators.Pagination(), courseValidator.EnrollmentList(), controllers.AdminGetCourseEnrollments)
	adminGroup.Post("/:id/enroll", validators.IDParams("id"), courseValidator.GrantEnrollment(), controllers.AdminGrantEnrollment)
	adminGroup.Delete("/:id/enroll/:user_id", validators.IDParams("id", "user_id"), controllers.AdminRevokeEnrollment)

	studentGroup := app.Group("/admin/student", middleware.JWTMiddleware, manage)
	studentGroup.Get("/:user_id/progress", validators.IDParams("user_id"), controllers.AdminGetStudentProgress)

	// Certificates and reviews
	app.Get("/admin/certificates/issued", middleware.JWTMiddleware, manage, validators.Pagination(), controllers.AdminGetIssuedCertificates)
	app.Delete("/admin/review/:id", middleware.JWTMiddleware, manage, validators.IDParams("id"), controllers.AdminDeleteReview)

	// Dashboard
	app.Get("/admin/dashboard/stats", middleware.JWTMiddleware,
		middleware.CheckPermissionMiddleware(models.PermViewDashboard), controllers.AdminDashboardStats)
}
