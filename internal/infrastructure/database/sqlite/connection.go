package sqlite

import (
	"fmt"
	"io"
	"log"
	"strings"

	"mealreminder/internal/domain/entity"
	"mealreminder/internal/pkg/config"
	"mealreminder/internal/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens the SQLite database at cfg.Path and migrates the schema.
// SQL logging goes to w at cfg.LogLevel.
func NewDB(cfg config.DatabaseConfig, w io.Writer, appLog logger.Logger) (*gorm.DB, error) {
	newLogger := gormlogger.New(
		log.New(w, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             0,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to connect to database %s: %w", cfg.Path, err)
	}
	appLog.Info(fmt.Sprintf("Successfully connected to database: %s", cfg.Path))

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	appLog.Info("Database schema migration completed.")
	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// AutoMigrate automatically migrates the database schema for the defined entities.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.User{},
		&entity.ReminderDocument{},
	)
	if err != nil {
		return fmt.Errorf("🔴 ERROR: schema migration failed: %w", err)
	}
	return nil
}

// CloseDB closes the database connection if it's open.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("🔴 ERROR: failed to get underlying *sql.DB: %w", err)
	}
	return sqlDB.Close()
}
