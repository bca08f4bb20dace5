package controllers

import (
	"academy/config"
	"academy/database"
	"academy/integrations/mux"
	"academy/logger"
	"academy/middleware"
	courseModels "academy/models/course"
	"academy/utils"
	courseValidator "academy/validators/course"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func findLesson(c *fiber.Ctx, lessonID uint) (*courseModels.Lesson, error) {
	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}
	return &lesson, nil
}

// deleteMuxAsset removes a video from Mux, logging failures
func deleteMuxAsset(assetID string) {
	if assetID == "" || mux.Video == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mux.Video.DeleteAsset(ctx, assetID); err != nil {
		logger.Log.Warn("deleting mux asset failed", zap.String("asset_id", assetID), zap.Error(err))
	}
}

func AdminCreateLesson(c *fiber.Ctx) error {
	module, err := findModule(c, c.Locals("id").(uint), c.Locals("module_id").(uint))
	if module == nil {
		return err
	}
	reqData, ok := c.Locals("validatedLesson").(*courseValidator.CreateLessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	orderIndex := 0
	if reqData.OrderIndex != nil {
		orderIndex = *reqData.OrderIndex
	} else {
		var maxIndex int
		db.Model(&courseModels.Lesson{}).Where("module_id = ? AND is_deleted = ?", module.ID, false).
			Select("COALESCE(MAX(order_index), 0)").Scan(&maxIndex)
		orderIndex = maxIndex + 1
	}

	lesson := courseModels.Lesson{
		CourseID:      module.CourseID,
		ModuleID:      module.ID,
		Title:         reqData.Title,
		Description:   reqData.Description,
		Body:          reqData.Body,
		OrderIndex:    orderIndex,
		IsFreePreview: reqData.IsFreePreview,
		VideoStatus:   courseModels.VideoNone,
	}
	if err := db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

func AdminListLessons(c *fiber.Ctx) error {
	module, err := findModule(c, c.Locals("id").(uint), c.Locals("module_id").(uint))
	if module == nil {
		return err
	}

	var lessons []courseModels.Lesson
	if err := database.Database.Db.Where("module_id = ? AND is_deleted = ?", module.ID, false).
		Order("order_index asc, id asc").Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons fetched successfully!", lessons)
}

func AdminUpdateLesson(c *fiber.Ctx) error {
	lesson, err := findLesson(c, c.Locals("id").(uint))
	if lesson == nil {
		return err
	}
	reqData, ok := c.Locals("validatedLesson").(*courseValidator.UpdateLessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Body != nil {
		updates["body"] = *reqData.Body
	}
	if reqData.OrderIndex != nil {
		updates["order_index"] = *reqData.OrderIndex
	}
	if reqData.IsFreePreview != nil {
		updates["is_free_preview"] = *reqData.IsFreePreview
	}
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}
	if err := database.Database.Db.Model(lesson).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

// AdminDeleteLesson soft deletes a lesson and best-effort deletes its Mux asset.
// Removing the last published lesson unpublishes the course.
func AdminDeleteLesson(c *fiber.Ctx) error {
	lesson, err := findLesson(c, c.Locals("id").(uint))
	if lesson == nil {
		return err
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(lesson).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return utils.SyncCoursePublication(tx, lesson.CourseID)
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}

	deleteMuxAsset(lesson.MuxAssetID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

// AdminPublishLesson toggles a lesson. Unpublishing the last published lesson unpublishes the course.
func AdminPublishLesson(c *fiber.Ctx) error {
	lesson, err := findLesson(c, c.Locals("id").(uint))
	if lesson == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPublish").(*courseValidator.PublishRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(lesson).Update("is_published", *reqData.Published).Error; err != nil {
			return err
		}
		return utils.SyncCoursePublication(tx, lesson.CourseID)
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
	}

	msg := "Lesson unpublished successfully!"
	if *reqData.Published {
		msg = "Lesson published successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, msg, lesson)
}

// AdminCreateVideoUpload starts a Mux direct upload for a lesson.
// The asset is linked to the lesson when the Mux webhook reports it.
func AdminCreateVideoUpload(c *fiber.Ctx) error {
	lesson, err := findLesson(c, c.Locals("id").(uint))
	if lesson == nil {
		return err
	}
	if mux.Video == nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Video uploads are not configured!", nil)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()
	upload, err := mux.Video.CreateDirectUpload(ctx, mux.UploadRequest{
		Passthrough: utils.LessonPassthrough(lesson.ID),
		CorsOrigin:  config.AppConfig.FrontendURL,
	})
	if err != nil {
		logger.Log.Error("creating mux upload", zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to create video upload!", nil)
	}

	if err := database.Database.Db.Model(lesson).Updates(map[string]interface{}{
		"mux_upload_id": upload.ID,
		"video_status":  courseModels.VideoUploading,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save upload!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Upload created successfully!", fiber.Map{
		"upload_id":    upload.ID,
		"upload_url":   upload.URL,
		"lesson_id":    lesson.ID,
		"video_status": courseModels.VideoUploading,
	})
}
