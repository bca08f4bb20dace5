package course

import "gorm.io/gorm"

const (
	VideoNone       = "NONE"
	VideoUploading  = "UPLOADING"
	VideoProcessing = "PROCESSING"
	VideoReady      = "READY"
	VideoErrored    = "ERRORED"
)

// Lesson is a single playable unit inside a module
type Lesson struct {
	gorm.Model
	CourseID        uint   `json:"course_id" gorm:"index;not null"`
	ModuleID        uint   `json:"module_id" gorm:"index;not null"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Body            string `json:"body,omitempty" gorm:"type:text"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"` // Order within module
	IsFreePreview   bool   `json:"is_free_preview" gorm:"default:false"`
	IsPublished     bool   `json:"is_published" gorm:"default:false"`
	DurationSeconds int    `json:"duration_seconds" gorm:"default:0"`
	VideoStatus     string `json:"video_status" gorm:"default:'NONE'"`
	MuxUploadID     string `json:"-" gorm:"index"`
	MuxAssetID      string `json:"-" gorm:"index"`
	MuxPlaybackID   string `json:"playback_id,omitempty"`
	IsDeleted       bool   `json:"-" gorm:"default:false"`
}
