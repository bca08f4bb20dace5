package course

import (
	"time"

	"gorm.io/gorm"
)

const (
	EnrollmentEnrolled   = "ENROLLED"
	EnrollmentInProgress = "IN_PROGRESS"
	EnrollmentCompleted  = "COMPLETED"
	EnrollmentRevoked    = "REVOKED"

	SourceFree     = "FREE"
	SourcePurchase = "PURCHASE"
	SourceAdmin    = "ADMIN"
)

// Enrollment grants a user access to a course and tracks progress
type Enrollment struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID         uint       `json:"course_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	Status           string     `json:"status" gorm:"default:'ENROLLED'"` // ENROLLED, IN_PROGRESS, COMPLETED, REVOKED
	Source           string     `json:"source" gorm:"default:'FREE'"`     // FREE, PURCHASE, ADMIN
	OrderID          *uint      `json:"order_id"`
	Progress         float64    `json:"progress" gorm:"default:0"` // Completion percentage (0-100)
	CompletedLessons int        `json:"completed_lessons" gorm:"default:0"`
	TotalLessons     int        `json:"total_lessons" gorm:"default:0"`
	LastLessonID     *uint      `json:"last_lesson_id"`
	CompletedAt      *time.Time `json:"completed_at"`
	RevokedAt        *time.Time `json:"revoked_at"`
	IsDeleted        bool       `json:"-" gorm:"default:false"`
}

// Active reports whether the enrollment currently grants access
func (e Enrollment) Active() bool {
	return !e.IsDeleted && e.Status != EnrollmentRevoked
}

// LessonProgress tracks a user's progress through a single lesson
type LessonProgress struct {
	gorm.Model
	UserID         uint       `json:"user_id" gorm:"uniqueIndex:idx_progress_user_lesson;not null"`
	LessonID       uint       `json:"lesson_id" gorm:"uniqueIndex:idx_progress_user_lesson;not null"`
	CourseID       uint       `json:"course_id" gorm:"index;not null"`
	WatchedSeconds int        `json:"watched_seconds" gorm:"default:0"`
	Completed      bool       `json:"completed" gorm:"default:false"`
	CompletedAt    *time.Time `json:"completed_at"`
}
