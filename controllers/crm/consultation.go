package crmController

import (
	"academy/database"
	"academy/middleware"
	"academy/models"
	courseModels "academy/models/course"
	"academy/utils"
	"academy/validators"
	crmValidator "academy/validators/crm"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestConsultation stores a lead from the public site. Signed-in visitors are linked to it.
func RequestConsultation(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedConsultation").(*crmValidator.ConsultationRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	if reqData.CourseID != nil {
		var count int64
		db.Model(&courseModels.Course{}).Where("id = ? AND is_deleted = ?", *reqData.CourseID, false).Count(&count)
		if count == 0 {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
	}

	consultation := models.Consultation{
		Name:        reqData.Name,
		Email:       reqData.Email,
		Phone:       reqData.Phone,
		Message:     reqData.Message,
		CourseID:    reqData.CourseID,
		PreferredAt: reqData.PreferredAt,
		Status:      models.ConsultationNew,
		Source:      "WEBSITE",
	}
	if userID, ok := middleware.CurrentUserID(c); ok {
		consultation.UserID = &userID
	}

	if err := db.Create(&consultation).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit request!", nil)
	}

	utils.SendConsultationReceivedEmail(consultation.Email, consultation.Name)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Thanks! We will get back to you shortly.", consultation)
}

func ConsultationList(c *fiber.Ctx) error {
	query := c.Locals("validatedList").(*crmValidator.ConsultationListQuery)
	p := validators.PaginationFrom(c)

	db := database.Database.Db.Model(&models.Consultation{}).Where("is_deleted = ?", false)
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Search != "" {
		like := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if query.AssignedTo > 0 {
		db = db.Where("assigned_to = ?", query.AssignedTo)
	}

	var total int64
	db.Count(&total)

	var consultations []models.Consultation
	if err := db.Scopes(utils.Paginate(p)).Order("created_at DESC").Find(&consultations).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch consultations!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Consultations fetched successfully!",
		utils.PaginatedResponse("consultations", consultations, total, p))
}

func findConsultation(c *fiber.Ctx) (*models.Consultation, error) {
	var consultation models.Consultation
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", c.Locals("id").(uint), false).
		First(&consultation).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Consultation not found!", nil)
	}
	return &consultation, nil
}

func GetConsultation(c *fiber.Ctx) error {
	consultation, err := findConsultation(c)
	if consultation == nil {
		return err
	}

	data := fiber.Map{"consultation": consultation}
	if consultation.CourseID != nil {
		var course courseModels.Course
		if database.Database.Db.Select("id, title, slug").Where("id = ?", *consultation.CourseID).
			First(&course).Error == nil {
			data["course"] = course
		}
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Consultation fetched successfully!", data)
}

// UpdateConsultation moves a lead through the pipeline. CONVERTED and LOST are final.
func UpdateConsultation(c *fiber.Ctx) error {
	consultation, err := findConsultation(c)
	if consultation == nil {
		return err
	}
	reqData, ok := c.Locals("validatedConsultation").(*crmValidator.UpdateConsultationRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	updates := map[string]interface{}{}
	if reqData.Status != nil && *reqData.Status != consultation.Status {
		if consultation.IsTerminal() {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false,
				"Consultation is already "+strings.ToLower(consultation.Status)+"!", nil)
		}
		status := *reqData.Status
		if status == models.ConsultationScheduled && reqData.ScheduledAt == nil && consultation.ScheduledAt == nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "scheduled_at is required to schedule!", nil)
		}
		if status == models.ConsultationNew {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Cannot move a consultation back to NEW!", nil)
		}
		updates["status"] = status
		if consultation.ContactedAt == nil {
			now := time.Now()
			updates["contacted_at"] = &now
		}
	}
	if reqData.ScheduledAt != nil {
		updates["scheduled_at"] = reqData.ScheduledAt
	}
	if reqData.Notes != nil {
		updates["notes"] = strings.TrimSpace(*reqData.Notes)
	}
	if reqData.AssignedTo != nil {
		var admin models.User
		if err := db.Where("id = ? AND role = ? AND is_deleted = ?", *reqData.AssignedTo, models.RoleAdmin, false).
			First(&admin).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Consultations can only be assigned to admins!", nil)
		}
		updates["assigned_to"] = admin.ID
	}
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Nothing changed!", consultation)
	}

	if err := db.Model(consultation).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update consultation!", nil)
	}
	db.Where("id = ?", consultation.ID).First(consultation)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Consultation updated successfully!", consultation)
}

func DeleteConsultation(c *fiber.Ctx) error {
	consultation, err := findConsultation(c)
	if consultation == nil {
		return err
	}
	if err := database.Database.Db.Model(consultation).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete consultation!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Consultation deleted successfully!", nil)
}

// ConsultationStats counts leads per status. conversion_rate is CONVERTED over all leads, in percent.
func ConsultationStats(c *fiber.Ctx) error {
	type statusRow struct {
		Status string
		Total  int64
	}
	var rows []statusRow
	if err := database.Database.Db.Model(&models.Consultation{}).
		Select("status, COUNT(*) AS total").
		Where("is_deleted = ?", false).
		Group("status").
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch stats!", nil)
	}

	byStatus := make(map[string]int64, len(models.ConsultationStatuses))
	for _, s := range models.ConsultationStatuses {
		byStatus[s] = 0
	}
	var total int64
	for _, r := range rows {
		byStatus[r.Status] = r.Total
		total += r.Total
	}

	var overdue int64
	database.Database.Db.Model(&models.Consultation{}).
		Where("is_deleted = ? AND status = ? AND created_at < ?",
			false, models.ConsultationNew, time.Now().Add(-utils.ConsultationFollowUpAfter)).
		Count(&overdue)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "CRM stats fetched successfully!", fiber.Map{
		"total":           total,
		"by_status":       byStatus,
		"conversion_rate": utils.ProgressPercent(int(byStatus[models.ConsultationConverted]), int(total)),
		"overdue_new":     overdue,
	})
}
