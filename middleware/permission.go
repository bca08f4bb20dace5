package middleware

import (
	"academy/database"
	"academy/logger"
	"academy/models"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// activeUser loads the token's user and writes a 401/403 when it is missing or blocked
func activeUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return nil, JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return nil, JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}
	if user.IsBlockedAt(time.Now()) {
		return nil, JsonResponse(c, fiber.StatusForbidden, false, "Your account is blocked!", nil)
	}
	// the stored role wins over the one baked into the token
	c.Locals("role", user.Role)
	return &user, nil
}

// ActiveUser rejects tokens whose user was deleted or blocked after the token was issued.
// It must run after JWTMiddleware.
func ActiveUser(c *fiber.Ctx) error {
	if user, err := activeUser(c); user == nil {
		return err
	}
	return c.Next()
}

// CheckPermissionMiddleware returns a middleware that checks if the user has the required permission
func CheckPermissionMiddleware(requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := activeUser(c)
		if user == nil {
			return err
		}

		var permission models.Permission
		err = database.Database.Db.Where("user_id = ? AND permission = ? AND is_deleted = ?",
			user.ID, requiredPermission, false).First(&permission).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
			}
			logger.Log.Error("permission lookup failed", zap.Uint("user_id", user.ID), zap.Error(err))
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}

		return c.Next()
	}
}
