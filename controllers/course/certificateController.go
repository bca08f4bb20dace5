package controllers

import (
	"academy/database"
	"academy/middleware"
	"academy/utils"
	"academy/validators"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// VerifyCertificate is public: anyone holding a certificate number can check it
func VerifyCertificate(c *fiber.Ctx) error {
	number := strings.ToUpper(strings.TrimSpace(c.Params("number")))
	if number == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate number is required!", nil)
	}

	var row struct {
		CertificateNumber string    `json:"certificate_number"`
		HolderName        string    `json:"holder_name"`
		CourseTitle       string    `json:"course_title"`
		IssuedAt          time.Time `json:"issued_at"`
	}
	res := database.Database.Db.Table("certificates").
		Select("certificates.certificate_number, users.name AS holder_name, courses.title AS course_title, certificates.issued_at").
		Joins("JOIN users ON users.id = certificates.user_id").
		Joins("JOIN courses ON courses.id = certificates.course_id").
		Where("certificates.certificate_number = ? AND certificates.is_deleted = ? AND certificates.deleted_at IS NULL", number, false).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify certificate!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate is valid.", row)
}

func AdminGetIssuedCertificates(c *fiber.Ctx) error {
	p := validators.PaginationFrom(c)

	type certificateRow struct {
		ID                uint      `json:"id"`
		CertificateNumber string    `json:"certificate_number"`
		UserID            uint      `json:"user_id"`
		UserName          string    `json:"user_name"`
		UserEmail         string    `json:"user_email"`
		CourseID          uint      `json:"course_id"`
		CourseTitle       string    `json:"course_title"`
		IssuedAt          time.Time `json:"issued_at"`
	}

	db := database.Database.Db.Table("certificates").
		Joins("JOIN users ON users.id = certificates.user_id").
		Joins("JOIN courses ON courses.id = certificates.course_id").
		Where("certificates.is_deleted = ? AND certificates.deleted_at IS NULL", false)
	if courseID := c.QueryInt("course_id"); courseID > 0 {
		db = db.Where("certificates.course_id = ?", courseID)
	}

	var total int64
	db.Count(&total)

	var rows []certificateRow
	if err := db.Select("certificates.id, certificates.certificate_number, certificates.user_id, users.name AS user_name, users.email AS user_email, certificates.course_id, courses.title AS course_title, certificates.issued_at").
		Order("certificates.issued_at desc").
		Scopes(utils.Paginate(p)).
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Issued certificates fetched successfully!",
		utils.PaginatedResponse("certificates", rows, total, p))
}
