package superAdminController

import (
	"academy/database"
	"academy/logger"
	"academy/middleware"
	"academy/models"
	"academy/utils"
	"academy/validators"
	userValidator "academy/validators/userValidator"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func UserList(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*userValidator.UserListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	p := validators.PaginationFrom(c)

	db := database.Database.Db.Model(&models.User{}).Where("is_deleted = ?", false)
	if reqData.Role != "" {
		db = db.Where("role = ?", reqData.Role)
	}
	if reqData.Search != "" {
		like := "%" + strings.ToLower(reqData.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	db.Count(&total)

	var users []models.User
	if err := db.Order("created_at desc").Scopes(utils.Paginate(p)).Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user list!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User List.", utils.PaginatedResponse("users", users, total, p))
}

// ChangeUserRole switches a user between USER and ADMIN and re-seeds their permissions
func ChangeUserRole(c *fiber.Ctx) error {
	adminID, _ := c.Locals("userId").(uint)
	targetID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedRole").(*userValidator.ChangeRoleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if targetID == adminID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot change your own role!", nil)
	}

	db := database.Database.Db
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("role", reqData.Role).Error; err != nil {
			return err
		}
		return database.SeedPermissions(tx, reqData.Role, user.ID)
	})
	if err != nil {
		logger.Log.Error("changing role", zap.Uint("user_id", targetID), zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to change role!", nil)
	}

	logger.Log.Info("user role changed", zap.Uint("user_id", targetID), zap.String("role", reqData.Role), zap.Uint("by", adminID))
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role updated successfully!", user)
}

func BlockUser(c *fiber.Ctx) error {
	adminID, _ := c.Locals("userId").(uint)
	targetID := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedBlock").(*userValidator.BlockUserRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if targetID == adminID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot block yourself!", nil)
	}

	db := database.Database.Db
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	// admin blocks are indefinite; BlockedUntil is only used by login lockouts
	updates := map[string]interface{}{
		"is_blocked":            *reqData.Blocked,
		"blocked_until":         nil,
		"failed_login_attempts": 0,
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update user!", nil)
	}

	msg := "User unblocked successfully!"
	if *reqData.Blocked {
		msg = "User blocked successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, msg, user)
}

func PermissionsByUserID(c *fiber.Ctx) error {
	targetID := c.Locals("id").(uint)

	var permissions []models.Permission
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", targetID, false).Find(&permissions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch permissions!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Permissions fetched successfully!", permissions)
}
