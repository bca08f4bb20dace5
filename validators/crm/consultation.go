package crmValidator

import (
	"academy/models"
	"academy/validators"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type ConsultationRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=120"`
	Email       string     `json:"email" validate:"required,email,max=191"`
	Phone       string     `json:"phone" validate:"max=30"`
	Message     string     `json:"message" validate:"max=5000"`
	CourseID    *uint      `json:"course_id" validate:"omitempty,gt=0"`
	PreferredAt *time.Time `json:"preferred_at"`
}

type UpdateConsultationRequest struct {
	Status      *string    `json:"status"`
	Notes       *string    `json:"notes" validate:"omitempty,max=10000"`
	AssignedTo  *uint      `json:"assigned_to" validate:"omitempty,gt=0"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type ConsultationListQuery struct {
	Status     string `query:"status"`
	Search     string `query:"search"`
	AssignedTo uint   `query:"assigned_to"`
}

func RequestConsultation() fiber.Handler {
	return validators.Body("validatedConsultation", func(req *ConsultationRequest, errs map[string]string) {
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Phone = strings.TrimSpace(req.Phone)
		req.Message = strings.TrimSpace(req.Message)
		if req.PreferredAt != nil && req.PreferredAt.Before(time.Now().Add(-time.Minute)) {
			errs["preferred_at"] = "Preferred time must be in the future!"
		}
	})
}

func UpdateConsultation() fiber.Handler {
	return validators.Body("validatedConsultation", func(req *UpdateConsultationRequest, errs map[string]string) {
		if req.Status == nil && req.Notes == nil && req.AssignedTo == nil && req.ScheduledAt == nil {
			errs["request"] = "Nothing to update!"
			return
		}
		if req.Status != nil {
			status := strings.ToUpper(strings.TrimSpace(*req.Status))
			req.Status = &status
			if !validators.Contains(models.ConsultationStatuses, status) {
				errs["status"] = "Invalid status! Allowed: " + strings.Join(models.ConsultationStatuses, ", ")
			}
		}
	})
}

func ConsultationList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := new(ConsultationListQuery)
		if err := c.QueryParser(query); err != nil {
			return validators.BadQuery(c)
		}
		query.Status = strings.ToUpper(strings.TrimSpace(query.Status))
		if query.Status != "" && !validators.Contains(models.ConsultationStatuses, query.Status) {
			return validators.Invalid(c, "status", "Invalid status!")
		}
		query.Search = strings.TrimSpace(query.Search)
		c.Locals("validatedList", query)
		return c.Next()
	}
}
