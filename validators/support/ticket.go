package supportValidators

import (
	"academy/models"
	"academy/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type CreateTicketRequest struct {
	Subject  string `json:"subject" validate:"required,min=3,max=200"`
	Message  string `json:"message" validate:"required,max=5000"`
	Category string `json:"category"`
	Priority string `json:"priority"`
	CourseID *uint  `json:"course_id" validate:"omitempty,gt=0"`
}

type ReplyRequest struct {
	TicketID uint   `json:"ticketId" validate:"required,gt=0"`
	Message  string `json:"message" validate:"required,max=5000"`
}

type CloseRequest struct {
	TicketID uint `json:"ticketId" validate:"required,gt=0"`
}

type TicketListQuery struct {
	Status   string `query:"status"`
	Priority string `query:"priority"`
	Category string `query:"category"`
}

func CreateSupportTicket() fiber.Handler {
	return validators.Body("validatedSupportTicket", func(req *CreateTicketRequest, errs map[string]string) {
		req.Subject = strings.TrimSpace(req.Subject)
		if strings.ContainsAny(req.Subject, "<>{}") {
			errs["subject"] = "Subject contains invalid characters (e.g., <, >, {, })!"
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" && errs["message"] == "" {
			errs["message"] = "message is required!"
		}

		req.Category = strings.ToUpper(strings.TrimSpace(req.Category))
		if req.Category == "" {
			req.Category = "GENERAL"
		} else if !validators.Contains(models.TicketCategories, req.Category) {
			errs["category"] = "Invalid category! Allowed: " + strings.Join(models.TicketCategories, ", ")
		}

		req.Priority = strings.ToUpper(strings.TrimSpace(req.Priority))
		if req.Priority == "" {
			req.Priority = "MEDIUM"
		} else if !validators.Contains(models.TicketPriorities, req.Priority) {
			errs["priority"] = "Invalid priority! Allowed: " + strings.Join(models.TicketPriorities, ", ")
		}
	})
}

func ReplyTicket() fiber.Handler {
	return validators.Body("validatedReply", func(req *ReplyRequest, errs map[string]string) {
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" && errs["message"] == "" {
			errs["message"] = "message is required!"
		}
	})
}

func CloseTicket() fiber.Handler {
	return validators.Body[CloseRequest]("validatedClose", nil)
}

func TicketList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := new(TicketListQuery)
		if err := c.QueryParser(query); err != nil {
			return validators.BadQuery(c)
		}

		errors := make(map[string]string)
		query.Status = strings.ToUpper(strings.TrimSpace(query.Status))
		if query.Status != "" && !validators.Contains(models.TicketStatuses, query.Status) {
			errors["status"] = "Invalid status! Allowed: OPEN, PENDING, CLOSED"
		}
		query.Priority = strings.ToUpper(strings.TrimSpace(query.Priority))
		if query.Priority != "" && !validators.Contains(models.TicketPriorities, query.Priority) {
			errors["priority"] = "Invalid priority! Allowed: LOW, MEDIUM, HIGH"
		}
		query.Category = strings.ToUpper(strings.TrimSpace(query.Category))
		if query.Category != "" && !validators.Contains(models.TicketCategories, query.Category) {
			errors["category"] = "Invalid category!"
		}
		if len(errors) > 0 {
			return validators.Errors(c, errors)
		}

		c.Locals("validatedList", query)
		return c.Next()
	}
}
