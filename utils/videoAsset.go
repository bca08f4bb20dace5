package utils

import (
	courseModels "academy/models/course"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	MuxUploadAssetCreated = "video.upload.asset_created"
	MuxUploadErrored      = "video.upload.errored"
	MuxUploadCancelled    = "video.upload.cancelled"
	MuxAssetCreated       = "video.asset.created"
	MuxAssetReady         = "video.asset.ready"
	MuxAssetErrored       = "video.asset.errored"
	MuxAssetDeleted       = "video.asset.deleted"
)

// ErrLessonNotLinked means no lesson matches the event's passthrough, upload or asset id
var ErrLessonNotLinked = errors.New("no lesson linked to video event")

// VideoAssetEvent is the part of a Mux webhook needed to update a lesson
type VideoAssetEvent struct {
	EventID     string
	Type        string
	AssetID     string
	UploadID    string
	Passthrough string
	PlaybackID  string
	Duration    float64
}

// LessonPassthrough is the passthrough value attached to uploads for a lesson
func LessonPassthrough(lessonID uint) string {
	return fmt.Sprintf("lesson:%d", lessonID)
}

// ParseLessonPassthrough extracts the lesson id from "lesson:<id>"
func ParseLessonPassthrough(v string) (uint, bool) {
	raw, ok := strings.CutPrefix(v, "lesson:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// findLessonForVideo resolves the lesson by passthrough, then upload id, then asset id
func findLessonForVideo(db *gorm.DB, ev VideoAssetEvent) (*courseModels.Lesson, error) {
	var lesson courseModels.Lesson
	if id, ok := ParseLessonPassthrough(ev.Passthrough); ok {
		err := db.Where("id = ? AND is_deleted = ?", id, false).First(&lesson).Error
		if err == nil {
			return &lesson, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if ev.UploadID != "" {
		err := db.Where("mux_upload_id = ? AND is_deleted = ?", ev.UploadID, false).First(&lesson).Error
		if err == nil {
			return &lesson, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if ev.AssetID != "" {
		err := db.Where("mux_asset_id = ? AND is_deleted = ?", ev.AssetID, false).First(&lesson).Error
		if err == nil {
			return &lesson, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, ErrLessonNotLinked
}

// ApplyVideoAssetEvent links a Mux asset to its lesson and moves the lesson's video status.
// It returns (false, nil) for event types that do not touch lessons.
func ApplyVideoAssetEvent(db *gorm.DB, ev VideoAssetEvent) (bool, error) {
	switch ev.Type {
	case MuxUploadAssetCreated, MuxAssetCreated, MuxAssetReady, MuxAssetErrored, MuxAssetDeleted,
		MuxUploadErrored, MuxUploadCancelled:
	default:
		return false, nil
	}

	lesson, err := findLessonForVideo(db, ev)
	if err != nil {
		return false, err
	}

	updates := map[string]interface{}{}
	switch ev.Type {
	case MuxUploadAssetCreated, MuxAssetCreated:
		if ev.AssetID != "" {
			updates["mux_asset_id"] = ev.AssetID
		}
		if lesson.VideoStatus != courseModels.VideoReady {
			updates["video_status"] = courseModels.VideoProcessing
		}
	case MuxAssetReady:
		if ev.AssetID != "" {
			updates["mux_asset_id"] = ev.AssetID
		}
		if ev.PlaybackID != "" {
			updates["mux_playback_id"] = ev.PlaybackID
		}
		if ev.Duration > 0 {
			updates["duration_seconds"] = int(math.Round(ev.Duration))
		}
		updates["video_status"] = courseModels.VideoReady
	case MuxAssetErrored, MuxUploadErrored, MuxUploadCancelled:
		updates["video_status"] = courseModels.VideoErrored
	case MuxAssetDeleted:
		// a replacement asset may already be attached
		if ev.AssetID != "" && lesson.MuxAssetID != "" && lesson.MuxAssetID != ev.AssetID {
			return false, nil
		}
		updates["mux_asset_id"] = ""
		updates["mux_playback_id"] = ""
		updates["mux_upload_id"] = ""
		updates["duration_seconds"] = 0
		updates["video_status"] = courseModels.VideoNone
	}

	return true, db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&courseModels.Lesson{}).Where("id = ?", lesson.ID).Updates(updates).Error; err != nil {
			return err
		}
		return RefreshCourseDuration(tx, lesson.CourseID)
	})
}

// RefreshCourseDuration sums the durations of published lessons
func RefreshCourseDuration(tx *gorm.DB, courseID uint) error {
	var total int64
	if err := tx.Model(&courseModels.Lesson{}).
		Select("COALESCE(SUM(duration_seconds), 0)").
		Where("course_id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).
		Scan(&total).Error; err != nil {
		return err
	}
	return tx.Model(&courseModels.Course{}).Where("id = ?", courseID).Update("duration_seconds", total).Error
}
