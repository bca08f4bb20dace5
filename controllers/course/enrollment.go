package controllers

import (
	"academy/database"
	"academy/logger"
	"academy/middleware"
	"academy/models"
	courseModels "academy/models/course"
	"academy/utils"
	"academy/validators"
	courseValidator "academy/validators/course"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnrollInCourse enrolls the caller in a free course. Paid courses go through checkout.
func EnrollInCourse(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	courseID := c.Locals("id").(uint)
	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if existing, err := utils.FindEnrollment(db, user.ID, course.ID); err == nil && existing.Active() {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
	}

	if !course.IsFree() {
		return middleware.JsonResponse(c, fiber.StatusPaymentRequired, false, "This course requires purchase. Please checkout first!", fiber.Map{
			"course_id": course.ID,
			"price":     course.Price,
			"currency":  course.Currency,
		})
	}

	var enrollment *courseModels.Enrollment
	err = db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		enrollment, txErr = utils.GrantEnrollment(tx, user.ID, course.ID, courseModels.SourceFree, nil)
		return txErr
	})
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyEnrolled) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
		}
		logger.Log.Error("enrolling", zap.Uint("user_id", user.ID), zap.Uint("course_id", course.ID), zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	utils.SendEnrollmentEmail(user.Email, user.Name, course.Title)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Successfully enrolled in course!", enrollment)
}

// AdminGetCourseEnrollments lists a course's enrollments with student details
func AdminGetCourseEnrollments(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedList").(*courseValidator.EnrollmentListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	p := validators.PaginationFrom(c)

	type EnrollmentWithUser struct {
		courseModels.Enrollment
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}

	db := database.Database.Db.Table("enrollments").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.course_id = ? AND enrollments.is_deleted = ? AND enrollments.deleted_at IS NULL", courseID, false)
	if reqData.Status != "" {
		db = db.Where("enrollments.status = ?", reqData.Status)
	}

	var total int64
	db.Count(&total)

	var result []EnrollmentWithUser
	if err := db.Select("enrollments.*, users.name AS user_name, users.email AS user_email").
		Order("enrollments.created_at desc").
		Scopes(utils.Paginate(p)).
		Scan(&result).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!",
		utils.PaginatedResponse("enrollments", result, total, p))
}

// AdminGrantEnrollment gives a user access to a course without payment
func AdminGrantEnrollment(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedGrant").(*courseValidator.GrantEnrollmentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	var student models.User
	if err := db.Where("id = ? AND is_deleted = ?", reqData.UserID, false).First(&student).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var enrollment *courseModels.Enrollment
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		enrollment, txErr = utils.GrantEnrollment(tx, student.ID, course.ID, courseModels.SourceAdmin, nil)
		return txErr
	})
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyEnrolled) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "User is already enrolled!", nil)
		}
		logger.Log.Error("granting enrollment", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to grant enrollment!", nil)
	}

	utils.SendEnrollmentEmail(student.Email, student.Name, course.Title)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrollment granted successfully!", enrollment)
}

// AdminRevokeEnrollment removes a user's access to a course
func AdminRevokeEnrollment(c *fiber.Ctx) error {
	courseID := c.Locals("id").(uint)
	userID := c.Locals("user_id").(uint)
	db := database.Database.Db

	enrollment, err := utils.FindEnrollment(db, userID, courseID)
	if err != nil || !enrollment.Active() {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return utils.RevokeEnrollment(tx, userID, courseID)
	}); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to revoke enrollment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment revoked successfully!", nil)
}

// AdminGetStudentProgress shows every enrollment of a student with progress
func AdminGetStudentProgress(c *fiber.Ctx) error {
	studentID := c.Locals("user_id").(uint)
	db := database.Database.Db

	var student models.User
	if err := db.Where("id = ? AND is_deleted = ?", studentID, false).First(&student).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	type courseProgress struct {
		CourseID         uint       `json:"course_id"`
		CourseTitle      string     `json:"course_title"`
		Status           string     `json:"status"`
		Progress         float64    `json:"progress"`
		CompletedLessons int        `json:"completed_lessons"`
		TotalLessons     int        `json:"total_lessons"`
		EnrolledAt       time.Time  `json:"enrolled_at"`
		CompletedAt      *time.Time `json:"completed_at"`
	}

	var rows []courseProgress
	if err := db.Table("enrollments").
		Select("enrollments.course_id, courses.title AS course_title, enrollments.status, enrollments.progress, enrollments.completed_lessons, enrollments.total_lessons, enrollments.created_at AS enrolled_at, enrollments.completed_at").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.user_id = ? AND enrollments.is_deleted = ? AND enrollments.deleted_at IS NULL", studentID, false).
		Order("enrollments.created_at desc").
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Student progress fetched successfully!", fiber.Map{
		"user":    student,
		"courses": rows,
	})
}
