package database

import (
	"academy/config"
	"academy/logger"
	"academy/models"
	courseModels "academy/models/course"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// Dialector picks the gorm driver for DB_DRIVER
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres", "postgresql", "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
		)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
		)
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.DBName), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// ConnectDb opens the configured database, runs migrations and stores the handle globally
func ConnectDb(cfg *config.Config) error {
	dialector, err := Dialector(cfg)
	if err != nil {
		return err
	}

	level := gormlogger.Warn
	if !cfg.IsProduction() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(logger.Log, level),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return err
	}

	Database = DbInstance{Db: db}
	return nil
}

// Migrate performs database migrations for every model
func Migrate(db *gorm.DB) error {
	logger.Log.Info("Running Migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Permission{},
		&models.LoginTracking{},
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.Lesson{},
		&courseModels.Enrollment{},
		&courseModels.LessonProgress{},
		&courseModels.Certificate{},
		&courseModels.Review{},
		&models.Order{},
		&models.WebhookEvent{},
		&models.SupportTicket{},
		&models.TicketMessage{},
		&models.Consultation{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Log.Info("Migrations completed successfully.")
	return nil
}

// Ping checks that the database answers
func Ping() error {
	if Database.Db == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := Database.Db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the connection pool
func Close() {
	if Database.Db == nil {
		return
	}
	if sqlDB, err := Database.Db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Log.Warn("closing database", zap.Error(err))
		}
	}
}
