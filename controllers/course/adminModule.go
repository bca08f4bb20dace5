package controllers

import (
	"academy/database"
	"academy/middleware"
	courseModels "academy/models/course"
	"academy/utils"
	courseValidator "academy/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func findModule(c *fiber.Ctx, courseID, moduleID uint) (*courseModels.Module, error) {
	var module courseModels.Module
	if err := database.Database.Db.Where("id = ? AND course_id = ? AND is_deleted = ?", moduleID, courseID, false).
		First(&module).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	}
	return &module, nil
}

func AdminCreateModule(c *fiber.Ctx) error {
	course, err := findCourse(c, c.Locals("id").(uint))
	if course == nil {
		return err
	}
	reqData, ok := c.Locals("validatedModule").(*courseValidator.CreateModuleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	orderIndex := 0
	if reqData.OrderIndex != nil {
		orderIndex = *reqData.OrderIndex
	} else {
		var maxIndex int
		db.Model(&courseModels.Module{}).Where("course_id = ? AND is_deleted = ?", course.ID, false).
			Select("COALESCE(MAX(order_index), 0)").Scan(&maxIndex)
		orderIndex = maxIndex + 1
	}

	module := courseModels.Module{
		CourseID:    course.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  orderIndex,
	}
	if err := db.Create(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

func AdminUpdateModule(c *fiber.Ctx) error {
	module, err := findModule(c, c.Locals("id").(uint), c.Locals("module_id").(uint))
	if module == nil {
		return err
	}
	reqData, ok := c.Locals("validatedModule").(*courseValidator.UpdateModuleRequest)
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
	if reqData.OrderIndex != nil {
		updates["order_index"] = *reqData.OrderIndex
	}
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}
	if err := database.Database.Db.Model(module).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", module)
}

// AdminDeleteModule soft deletes a module together with its lessons
func AdminDeleteModule(c *fiber.Ctx) error {
	module, err := findModule(c, c.Locals("id").(uint), c.Locals("module_id").(uint))
	if module == nil {
		return err
	}

	var assetIDs []string
	database.Database.Db.Model(&courseModels.Lesson{}).
		Where("module_id = ? AND is_deleted = ? AND mux_asset_id <> ''", module.ID, false).
		Pluck("mux_asset_id", &assetIDs)

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(module).Update("is_deleted", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&courseModels.Lesson{}).Where("module_id = ?", module.ID).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return utils.RefreshCourseDuration(tx, module.CourseID)
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete module!", nil)
	}

	for _, assetID := range assetIDs {
		deleteMuxAsset(assetID)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}

func AdminListModules(c *fiber.Ctx) error {
	course, err := findCourse(c, c.Locals("id").(uint))
	if course == nil {
		return err
	}

	var modules []courseModels.Module
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("order_index asc, id asc").Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch modules!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Modules fetched successfully!", modules)
}

// AdminReorderModules sets order_index from the position of each id in module_ids
func AdminReorderModules(c *fiber.Ctx) error {
	course, err := findCourse(c, c.Locals("id").(uint))
	if course == nil {
		return err
	}
	reqData, ok := c.Locals("validatedReorder").(*courseValidator.ReorderModulesRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db

	var count int64
	db.Model(&courseModels.Module{}).
		Where("course_id = ? AND is_deleted = ? AND id IN ?", course.ID, false, reqData.ModuleIDs).
		Count(&count)
	if int(count) != len(reqData.ModuleIDs) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Every module id must belong to this course!", nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for i, id := range reqData.ModuleIDs {
			if err := tx.Model(&courseModels.Module{}).Where("id = ?", id).Update("order_index", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reorder modules!", nil)
	}

	var modules []courseModels.Module
	db.Where("course_id = ? AND is_deleted = ?", course.ID, false).Order("order_index asc, id asc").Find(&modules)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Modules reordered successfully!", modules)
}
