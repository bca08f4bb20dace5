package controllers

import (
	"academy/config"
	"academy/database"
	"academy/logger"
	"academy/middleware"
	courseModels "academy/models/course"
	"academy/utils"
	"academy/validators"
	courseValidator "academy/validators/course"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func slugTaken(db *gorm.DB, slug string, exceptID uint) bool {
	var count int64
	db.Model(&courseModels.Course{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count)
	return count > 0
}

// uniqueSlug appends -2, -3, ... to base until it is free
func uniqueSlug(db *gorm.DB, base string) string {
	if base == "" {
		base = "course"
	}
	slug := base
	for i := 2; slugTaken(db, slug, 0); i++ {
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return slug
}

func outcomesJSON(outcomes []string) datatypes.JSON {
	if outcomes == nil {
		outcomes = []string{}
	}
	raw, _ := json.Marshal(outcomes)
	return datatypes.JSON(raw)
}

func findCourse(c *fiber.Ctx, id uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", id, false).First(&course).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	return &course, nil
}

func AdminCreateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	slug := reqData.Slug
	if slug != "" {
		if slugTaken(db, slug, 0) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Slug is already in use!", nil)
		}
	} else {
		slug = uniqueSlug(db, utils.Slugify(reqData.Title))
	}

	currency := reqData.Currency
	if currency == "" {
		currency = config.AppConfig.PaymentCurrency
	}

	course := courseModels.Course{
		Title:        reqData.Title,
		Slug:         slug,
		Subtitle:     reqData.Subtitle,
		Description:  reqData.Description,
		Instructor:   reqData.Instructor,
		Level:        reqData.Level,
		Price:        reqData.Price.Round(2),
		Currency:     currency,
		ThumbnailURL: reqData.ThumbnailURL,
		Outcomes:     outcomesJSON(reqData.Outcomes),
		Status:       courseModels.StatusDraft,
	}
	if err := db.Create(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Slug is already in use!", nil)
		}
		logger.Log.Error("creating course", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

func AdminUpdateCourse(c *fiber.Ctx) error {
	course, err := findCourse(c, c.Locals("id").(uint))
	if course == nil {
		return err
	}
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.UpdateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = strings.TrimSpace(*reqData.Title)
	}
	if reqData.Slug != nil && *reqData.Slug != "" && *reqData.Slug != course.Slug {
		if slugTaken(db, *reqData.Slug, course.ID) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Slug is already in use!", nil)
		}
		updates["slug"] = *reqData.Slug
	}
	if reqData.Subtitle != nil {
		updates["subtitle"] = *reqData.Subtitle
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Instructor != nil {
		updates["instructor"] = *reqData.Instructor
	}
	if reqData.Level != nil {
		updates["level"] = *reqData.Level
	}
	if reqData.Price != nil {
		updates["price"] = reqData.Price.Round(2)
	}
	if reqData.Currency != nil {
		updates["currency"] = *reqData.Currency
	}
	if reqData.ThumbnailURL != nil {
		updates["thumbnail_url"] = *reqData.ThumbnailURL
	}
	if reqData.Outcomes != nil {
		updates["outcomes"] = outcomesJSON(reqData.Outcomes)
	}
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}

	if err := db.Model(course).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Slug is already in use!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}
	db.First(course, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// AdminDeleteCourse soft deletes a course and frees its slug
func AdminDeleteCourse(c *fiber.Ctx) error {
	course, err := findCourse(c, c.Locals("id").(uint))
	if course == nil {
		return err
	}

	err = database.Database.Db.Model(course).Updates(map[string]interface{}{
		"is_deleted":   true,
		"is_published": false,
		"status":       courseModels.StatusArchived,
		"slug":         fmt.Sprintf("%s-deleted-%d", course.Slug, course.ID),
	}).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

func AdminGetAllCourses(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*courseValidator.AdminCourseListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	p := validators.PaginationFrom(c)

	db := database.Database.Db.Model(&courseModels.Course{}).Where("is_deleted = ?", false)
	if reqData.Status != "" {
		db = db.Where("status = ?", reqData.Status)
	}
	if reqData.Search != "" {
		db = db.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(reqData.Search)+"%")
	}

	var total int64
	db.Count(&total)

	var courses []courseModels.Course
	if err := db.Order("created_at desc").Scopes(utils.Paginate(p)).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!",
		utils.PaginatedResponse("courses", courses, total, p))
}

// AdminGetCourseDetails returns a course with every module and lesson, drafts included
func AdminGetCourseDetails(c *fiber.Ctx) error {
	course, err := findCourse(c, c.Locals("id").(uint))
	if course == nil {
		return err
	}

	var modules []courseModels.Module
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("order_index asc, id asc").
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_deleted = ?", false).Order("order_index asc, id asc")
		}).
		Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch modules!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", fiber.Map{
		"course":  course,
		"modules": modules,
	})
}

// AdminPublishCourse publishes or unpublishes a course. Publishing needs at least one published lesson.
func AdminPublishCourse(c *fiber.Ctx) error {
	course, err := findCourse(c, c.Locals("id").(uint))
	if course == nil {
		return err
	}
	reqData, ok := c.Locals("validatedPublish").(*courseValidator.PublishRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	updates := map[string]interface{}{}
	if *reqData.Published {
		lessonIDs, err := utils.PublishedLessonIDs(db, course.ID)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check lessons!", nil)
		}
		if len(lessonIDs) == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Add and publish at least one lesson before publishing the course!", nil)
		}
		updates["is_published"] = true
		updates["status"] = courseModels.StatusPublished
		if course.PublishedAt == nil {
			updates["published_at"] = time.Now()
		}
	} else {
		updates["is_published"] = false
		updates["status"] = courseModels.StatusDraft
	}

	if err := db.Model(course).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}
	db.First(course, course.ID)

	msg := "Course unpublished successfully!"
	if course.IsPublished {
		msg = "Course published successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, msg, course)
}
