package course

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

var Levels = []string{"BEGINNER", "INTERMEDIATE", "ADVANCED"}

// Course represents a sellable learning course
type Course struct {
	gorm.Model
	Title           string          `json:"title"`
	Slug            string          `json:"slug" gorm:"uniqueIndex;size:191"`
	Subtitle        string          `json:"subtitle"`
	Description     string          `json:"description" gorm:"type:text"`
	Instructor      string          `json:"instructor"`
	Level           string          `json:"level" gorm:"default:'BEGINNER'"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(10,2);default:0"`
	Currency        string          `json:"currency" gorm:"default:'usd'"`
	ThumbnailURL    string          `json:"thumbnail_url"`
	Outcomes        datatypes.JSON  `json:"outcomes"`                      // JSON array of strings
	Status          string          `json:"status" gorm:"default:'DRAFT'"` // DRAFT, PUBLISHED, ARCHIVED
	IsPublished     bool            `json:"is_published" gorm:"default:false;index"`
	PublishedAt     *time.Time      `json:"published_at"`
	Rating          float64         `json:"rating" gorm:"default:0"`
	ReviewCount     int             `json:"review_count" gorm:"default:0"`
	EnrollmentCount int             `json:"enrollment_count" gorm:"default:0"`
	DurationSeconds int             `json:"duration_seconds" gorm:"default:0"`
	IsDeleted       bool            `json:"-" gorm:"default:false"`
}

// IsFree reports whether the course can be enrolled in without checkout
func (c Course) IsFree() bool {
	return !c.Price.IsPositive()
}
