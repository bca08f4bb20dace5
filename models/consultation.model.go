package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ConsultationNew       = "NEW"
	ConsultationContacted = "CONTACTED"
	ConsultationScheduled = "SCHEDULED"
	ConsultationConverted = "CONVERTED"
	ConsultationLost      = "LOST"
)

var ConsultationStatuses = []string{
	ConsultationNew, ConsultationContacted, ConsultationScheduled, ConsultationConverted, ConsultationLost,
}

// Consultation is a lead captured from the marketing site and worked in the CRM
type Consultation struct {
	gorm.Model
	Name        string     `json:"name"`
	Email       string     `json:"email" gorm:"index"`
	Phone       string     `json:"phone"`
	Message     string     `json:"message" gorm:"type:text"`
	CourseID    *uint      `json:"course_id"`
	UserID      *uint      `json:"user_id"`
	PreferredAt *time.Time `json:"preferred_at"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	ContactedAt *time.Time `json:"contacted_at"`
	Status      string     `json:"status" gorm:"default:'NEW';index"`
	Source      string     `json:"source" gorm:"default:'WEBSITE'"`
	Notes       string     `json:"notes" gorm:"type:text"`
	AssignedTo  *uint      `json:"assigned_to"`
	IsDeleted   bool       `json:"-" gorm:"default:false"`
}

// IsTerminal reports whether the lead can no longer change status
func (c Consultation) IsTerminal() bool {
	return c.Status == ConsultationConverted || c.Status == ConsultationLost
}
