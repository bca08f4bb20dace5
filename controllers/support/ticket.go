package supportControllers

import (
	"academy/database"
	"academy/middleware"
	"academy/models"
	"academy/utils"
	"academy/validators"
	supportValidators "academy/validators/support"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func CreateSupportTicket(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("validatedSupportTicket").(*supportValidators.CreateTicketRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	now := time.Now()
	ticket := models.SupportTicket{
		UserID:      userId,
		CourseID:    reqData.CourseID,
		Subject:     reqData.Subject,
		Status:      models.TicketOpen,
		Priority:    reqData.Priority,
		Category:    reqData.Category,
		LastReplyAt: &now,
	}

	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		message := models.TicketMessage{
			TicketID:   ticket.ID,
			SenderID:   userId,
			SenderRole: models.SenderUser,
			Body:       reqData.Message,
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		ticket.Messages = []models.TicketMessage{message}
		return nil
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create support ticket!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Support ticket created successfully!", ticket)
}

// filterTickets applies the status, priority and category filters of a list query
func filterTickets(db *gorm.DB, query *supportValidators.TicketListQuery) *gorm.DB {
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Priority != "" {
		db = db.Where("priority = ?", query.Priority)
	}
	if query.Category != "" {
		db = db.Where("category = ?", query.Category)
	}
	return db
}

func TicketList(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	query := c.Locals("validatedList").(*supportValidators.TicketListQuery)
	p := validators.PaginationFrom(c)

	db := database.Database.Db.Model(&models.SupportTicket{}).Where("user_id = ? AND is_deleted = ?", userId, false)
	db = filterTickets(db, query)

	var total int64
	db.Count(&total)

	var tickets []models.SupportTicket
	if err := db.Scopes(utils.Paginate(p)).Order("created_at DESC").Find(&tickets).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch tickets!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tickets fetched successfully!",
		utils.PaginatedResponse("tickets", tickets, total, p))
}

// GetTicket returns one ticket with its conversation to the owner or an admin
func GetTicket(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	ticketID := c.Locals("id").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var ticket models.SupportTicket
	err := database.Database.Db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ? AND is_deleted = ?", ticketID, false).
		First(&ticket).Error
	if err != nil || (ticket.UserID != userId && !user.IsAdmin()) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Ticket not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Ticket fetched successfully!", ticket)
}

// addReply appends a message to the thread and moves the ticket to status
func addReply(ticket *models.SupportTicket, senderID uint, senderRole, body, status string) (*models.TicketMessage, error) {
	message := models.TicketMessage{
		TicketID:   ticket.ID,
		SenderID:   senderID,
		SenderRole: senderRole,
		Body:       body,
	}
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		now := time.Now()
		ticket.Status = status
		ticket.LastReplyAt = &now
		return tx.Model(ticket).Updates(map[string]interface{}{
			"status":        status,
			"last_reply_at": &now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func UserReplyTicket(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	reqData, ok := c.Locals("validatedReply").(*supportValidators.ReplyRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var ticket models.SupportTicket
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", reqData.TicketID, userId, false).
		First(&ticket).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Ticket not found!", nil)
	}
	if ticket.Status == models.TicketClosed {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Ticket is closed!", nil)
	}

	message, err := addReply(&ticket, userId, models.SenderUser, reqData.Message, models.TicketOpen)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send reply!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reply sent successfully!", fiber.Map{
		"ticket":  ticket,
		"message": message,
	})
}

func AdminReplyTicket(c *fiber.Ctx) error {
	adminId := c.Locals("userId").(uint)
	reqData, ok := c.Locals("validatedReply").(*supportValidators.ReplyRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var ticket models.SupportTicket
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.TicketID, false).
		First(&ticket).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Ticket not found!", nil)
	}
	if ticket.Status == models.TicketClosed {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Ticket is closed!", nil)
	}

	message, err := addReply(&ticket, adminId, models.SenderAdmin, reqData.Message, models.TicketPending)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send reply!", nil)
	}

	var owner models.User
	if err := database.Database.Db.Where("id = ?", ticket.UserID).First(&owner).Error; err == nil {
		utils.SendTicketReplyEmail(owner.Email, owner.Name, ticket.Subject, reqData.Message)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reply sent successfully!", fiber.Map{
		"ticket":  ticket,
		"message": message,
	})
}

func closeTicket(c *fiber.Ctx, ticket *models.SupportTicket) error {
	if ticket.Status == models.TicketClosed {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Ticket is already closed!", nil)
	}
	now := time.Now()
	if err := database.Database.Db.Model(ticket).Updates(map[string]interface{}{
		"status":    models.TicketClosed,
		"closed_at": &now,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to close ticket!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Ticket closed successfully!", ticket)
}

func UserCloseTicket(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	reqData, ok := c.Locals("validatedClose").(*supportValidators.CloseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var ticket models.SupportTicket
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", reqData.TicketID, userId, false).
		First(&ticket).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Ticket not found!", nil)
	}
	return closeTicket(c, &ticket)
}

func AdminCloseTicket(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedClose").(*supportValidators.CloseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var ticket models.SupportTicket
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.TicketID, false).
		First(&ticket).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Ticket not found!", nil)
	}
	return closeTicket(c, &ticket)
}

func AdminTicketList(c *fiber.Ctx) error {
	query := c.Locals("validatedList").(*supportValidators.TicketListQuery)
	p := validators.PaginationFrom(c)

	db := database.Database.Db.Model(&models.SupportTicket{}).Where("is_deleted = ?", false)
	db = filterTickets(db, query)

	var total int64
	db.Count(&total)

	var tickets []models.SupportTicket
	if err := db.Scopes(utils.Paginate(p)).Order("last_reply_at DESC, created_at DESC").Find(&tickets).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch tickets!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tickets fetched successfully!",
		utils.PaginatedResponse("tickets", tickets, total, p))
}

type countRow struct {
	Label string
	Total int64
}

func countBy(column string) (map[string]int64, error) {
	var rows []countRow
	err := database.Database.Db.Model(&models.SupportTicket{}).
		Select(column+" AS label, COUNT(*) AS total").
		Where("is_deleted = ?", false).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Label] = r.Total
	}
	return counts, nil
}

func AdminSupportStats(c *fiber.Ctx) error {
	byStatus, err := countBy("status")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch stats!", nil)
	}
	byPriority, err := countBy("priority")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch stats!", nil)
	}
	byCategory, err := countBy("category")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch stats!", nil)
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}
	for _, s := range models.TicketStatuses {
		if _, ok := byStatus[s]; !ok {
			byStatus[s] = 0
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Support stats fetched successfully!", fiber.Map{
		"total":       total,
		"by_status":   byStatus,
		"by_priority": byPriority,
		"by_category": byCategory,
	})
}
