package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TicketOpen    = "OPEN"
	TicketPending = "PENDING"
	TicketClosed  = "CLOSED"

	SenderUser  = "USER"
	SenderAdmin = "ADMIN"
)

var (
	TicketStatuses   = []string{TicketOpen, TicketPending, TicketClosed}
	TicketPriorities = []string{"LOW", "MEDIUM", "HIGH"}
	TicketCategories = []string{"GENERAL", "TECHNICAL", "BILLING", "COURSE"}
)

type SupportTicket struct {
	gorm.Model
	UserID      uint            `json:"user_id" gorm:"index;not null"`
	CourseID    *uint           `json:"course_id"`
	Subject     string          `json:"subject"`
	Status      string          `json:"status" gorm:"default:'OPEN';index"`
	Priority    string          `json:"priority" gorm:"default:'MEDIUM'"`
	Category    string          `json:"category" gorm:"default:'GENERAL'"`
	LastReplyAt *time.Time      `json:"last_reply_at"`
	ClosedAt    *time.Time      `json:"closed_at"`
	Messages    []TicketMessage `json:"messages,omitempty" gorm:"foreignKey:TicketID"`
	IsDeleted   bool            `json:"-" gorm:"default:false"`
}

// TicketMessage is one entry in a ticket's conversation thread
type TicketMessage struct {
	gorm.Model
	TicketID   uint   `json:"ticket_id" gorm:"index;not null"`
	SenderID   uint   `json:"sender_id"`
	SenderRole string `json:"sender_role"` // USER, ADMIN
	Body       string `json:"body" gorm:"type:text"`
}
