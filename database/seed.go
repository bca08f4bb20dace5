package database

import (
	"academy/config"
	"academy/logger"
	"academy/models"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPermissions replaces the permission rows of a user with the defaults for role
func SeedPermissions(db *gorm.DB, role string, userID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Permission{}).
			Where("user_id = ? AND is_deleted = ?", userID, false).
			Update("is_deleted", true).Error; err != nil {
			return err
		}

		var records []models.Permission
		for _, p := range models.DefaultPermissions(role) {
			records = append(records, models.Permission{
				UserID:     userID,
				Role:       role,
				Permission: p,
			})
		}
		return tx.Create(&records).Error
	})
}

// SeedAdmin creates the bootstrap admin account when ADMIN_EMAIL is configured and missing
func SeedAdmin(db *gorm.DB, cfg *config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), cfg.SaltRound)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     "Administrator",
		Email:    email,
		Role:     models.RoleAdmin,
		Password: string(hashed),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	if err := SeedPermissions(db, admin.Role, admin.ID); err != nil {
		return err
	}

	logger.Log.Info("seeded admin account", zap.String("email", email))
	return nil
}
