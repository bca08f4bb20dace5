package controllers

import (
	"academy/config"
	"academy/database"
	"academy/logger"
	"academy/middleware"
	courseModels "academy/models/course"
	"academy/utils"
	courseValidator "academy/validators/course"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func findPublishedLesson(db *gorm.DB, courseID, lessonID uint) (*courseModels.Lesson, error) {
	var lesson courseModels.Lesson
	err := db.Where("id = ? AND course_id = ? AND is_published = ? AND is_deleted = ?", lessonID, courseID, true, false).
		First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// neighbourLessons returns the ids of the lessons before and after lessonID in course order
func neighbourLessons(db *gorm.DB, courseID, lessonID uint) (prev, next *uint) {
	var ordered []uint
	db.Table("lessons").
		Select("lessons.id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("lessons.course_id = ? AND lessons.is_published = ? AND lessons.is_deleted = ? AND modules.is_deleted = ? AND lessons.deleted_at IS NULL",
			courseID, true, false, false).
		Order("modules.order_index asc, modules.id asc, lessons.order_index asc, lessons.id asc").
		Pluck("lessons.id", &ordered)

	for i, id := range ordered {
		if id != lessonID {
			continue
		}
		if i > 0 {
			prev = &ordered[i-1]
		}
		if i+1 < len(ordered) {
			next = &ordered[i+1]
		}
		break
	}
	return prev, next
}

// GetLesson returns a playable lesson for enrolled users and free previews
func GetLesson(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	courseID := c.Locals("course_id").(uint)
	lessonID := c.Locals("lesson_id").(uint)
	db := database.Database.Db

	if err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).
		First(&courseModels.Course{}).Error; err != nil && !user.IsAdmin() {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	lesson, err := findPublishedLesson(db, courseID, lessonID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	allowed, err := utils.CanViewLesson(db, user.ID, *lesson)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !allowed {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	}

	var progress *courseModels.LessonProgress
	var lp courseModels.LessonProgress
	if err := db.Where("user_id = ? AND lesson_id = ?", user.ID, lesson.ID).First(&lp).Error; err == nil {
		progress = &lp
	}

	prev, next := neighbourLessons(db, courseID, lesson.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully!", fiber.Map{
		"lesson":        lesson,
		"progress":      progress,
		"previous_id":   prev,
		"next_id":       next,
		"stream_url":    streamURL(lesson.MuxPlaybackID),
		"thumbnail_url": thumbnailURL(lesson.MuxPlaybackID),
	})
}

func streamURL(playbackID string) string {
	if playbackID == "" {
		return ""
	}
	return "https://stream.mux.com/" + playbackID + ".m3u8"
}

func thumbnailURL(playbackID string) string {
	if playbackID == "" {
		return ""
	}
	return "https://image.mux.com/" + playbackID + "/thumbnail.jpg"
}

// UpdateLessonProgress records watch time and completion, then recomputes the enrollment
func UpdateLessonProgress(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	courseID := c.Locals("course_id").(uint)
	lessonID := c.Locals("lesson_id").(uint)
	reqData, ok := c.Locals("validatedProgress").(*courseValidator.ProgressRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	lesson, err := findPublishedLesson(db, courseID, lessonID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	// progress is tracked against an enrollment, free previews alone do not count
	existing, err := utils.FindEnrollment(db, user.ID, courseID)
	if err != nil || !existing.Active() {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	}

	var (
		enrollment     *courseModels.Enrollment
		newlyCompleted bool
		certificate    *courseModels.Certificate
		issued         bool
		progress       courseModels.LessonProgress
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := courseModels.LessonProgress{
			UserID:         user.ID,
			LessonID:       lesson.ID,
			CourseID:       courseID,
			WatchedSeconds: reqData.WatchedSeconds,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND lesson_id = ?", user.ID, lesson.ID).First(&progress).Error; err != nil {
			return err
		}

		if reqData.WatchedSeconds > progress.WatchedSeconds {
			progress.WatchedSeconds = reqData.WatchedSeconds
		}
		if reqData.Completed != nil {
			switch {
			case *reqData.Completed && !progress.Completed:
				progress.Completed = true
				progress.CompletedAt = &now
			case !*reqData.Completed && progress.Completed:
				progress.Completed = false
				progress.CompletedAt = nil
			}
		}
		if err := tx.Save(&progress).Error; err != nil {
			return err
		}

		if err := tx.Model(&courseModels.Enrollment{}).Where("id = ?", existing.ID).
			Update("last_lesson_id", lesson.ID).Error; err != nil {
			return err
		}

		var err error
		enrollment, newlyCompleted, err = utils.RecomputeEnrollment(tx, user.ID, courseID)
		if err != nil {
			return err
		}
		if enrollment.Status == courseModels.EnrollmentCompleted {
			certificate, issued, err = utils.IssueCertificate(tx, enrollment)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("updating progress", zap.Uint("user_id", user.ID), zap.Uint("lesson_id", lessonID), zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	if issued {
		var course courseModels.Course
		if err := db.Select("id", "title").First(&course, courseID).Error; err == nil {
			utils.SendCertificateEmail(user.Email, user.Name, course.Title, certificate.CertificateNumber,
				config.AppConfig.FrontendURL+"/certificate/verify/"+certificate.CertificateNumber)
		}
		logger.Log.Info("course completed", zap.Uint("user_id", user.ID), zap.Uint("course_id", courseID),
			zap.String("certificate", certificate.CertificateNumber))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", fiber.Map{
		"lesson_progress":  progress,
		"enrollment":       enrollment,
		"course_completed": newlyCompleted,
		"certificate":      certificate,
	})
}

// GetCourseProgress summarises the caller's progress through a course
func GetCourseProgress(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if user == nil {
		return err
	}
	courseID := c.Locals("course_id").(uint)
	db := database.Database.Db

	enrollment, err := utils.FindEnrollment(db, user.ID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "You are not enrolled in this course!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	var lessons []courseModels.LessonProgress
	db.Where("user_id = ? AND course_id = ?", user.ID, courseID).Find(&lessons)

	var certificate *courseModels.Certificate
	var cert courseModels.Certificate
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", user.ID, courseID, false).First(&cert).Error; err == nil {
		certificate = &cert
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment":  enrollment,
		"lessons":     lessons,
		"certificate": certificate,
	})
}
