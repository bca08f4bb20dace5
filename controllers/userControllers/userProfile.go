package userController

import (
	"academy/database"
	"academy/middleware"
	"academy/models"
	courseModels "academy/models/course"
	"academy/utils"
	"academy/validators"
	userValidator "academy/validators/userValidator"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func GetProfile(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var permissions []string
	database.Database.Db.Model(&models.Permission{}).
		Where("user_id = ? AND is_deleted = ?", userId, false).
		Pluck("permission", &permissions)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", fiber.Map{
		"user":        user,
		"permissions": permissions,
	})
}

func UpdateProfile(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedProfile").(*userValidator.UpdateProfileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Name != nil {
		updates["name"] = *reqData.Name
	}
	if reqData.Mobile != nil {
		updates["mobile"] = *reqData.Mobile
	}
	if reqData.AvatarURL != nil {
		updates["avatar_url"] = *reqData.AvatarURL
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", user)
}

// GetUserEnrollments lists the caller's enrollments with course summary and progress
func GetUserEnrollments(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	p := validators.PaginationFrom(c)

	type row struct {
		courseModels.Enrollment
		CourseTitle  string `json:"course_title"`
		CourseSlug   string `json:"course_slug"`
		ThumbnailURL string `json:"thumbnail_url"`
	}

	db := database.Database.Db.Table("enrollments").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.user_id = ? AND enrollments.is_deleted = ? AND enrollments.status <> ? AND enrollments.deleted_at IS NULL",
			userId, false, courseModels.EnrollmentRevoked)

	var total int64
	db.Count(&total)

	var rows []row
	if err := db.Select("enrollments.*, courses.title AS course_title, courses.slug AS course_slug, courses.thumbnail_url AS thumbnail_url").
		Order("enrollments.updated_at desc").
		Scopes(utils.Paginate(p)).
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!",
		utils.PaginatedResponse("enrollments", rows, total, p))
}

func GetUserCertificates(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	type row struct {
		CertificateNumber string    `json:"certificate_number"`
		CourseID          uint      `json:"course_id"`
		CourseTitle       string    `json:"course_title"`
		IssuedAt          time.Time `json:"issued_at"`
	}

	var rows []row
	if err := database.Database.Db.Table("certificates").
		Select("certificates.certificate_number, certificates.course_id, courses.title AS course_title, certificates.issued_at").
		Joins("JOIN courses ON courses.id = certificates.course_id").
		Where("certificates.user_id = ? AND certificates.is_deleted = ? AND certificates.deleted_at IS NULL", userId, false).
		Order("certificates.issued_at desc").
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", rows)
}

func GetUserOrders(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	p := validators.PaginationFrom(c)

	type row struct {
		Reference   string          `json:"reference"`
		CourseID    uint            `json:"course_id"`
		CourseTitle string          `json:"course_title"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Status      string          `json:"status"`
		CreatedAt   time.Time       `json:"created_at"`
		PaidAt      *time.Time      `json:"paid_at"`
	}

	db := database.Database.Db.Table("orders").
		Joins("JOIN courses ON courses.id = orders.course_id").
		Where("orders.user_id = ? AND orders.deleted_at IS NULL", userId)

	var total int64
	db.Count(&total)

	var rows []row
	if err := db.Select("orders.reference, orders.course_id, courses.title AS course_title, orders.amount, orders.currency, orders.status, orders.created_at, orders.paid_at").
		Order("orders.created_at desc").
		Scopes(utils.Paginate(p)).
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Orders fetched successfully!",
		utils.PaginatedResponse("orders", rows, total, p))
}
