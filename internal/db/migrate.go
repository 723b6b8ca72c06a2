package db

import (
	"fmt"

	"github.com/zulandar/flagman/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.ProcessedComment{},
		&models.ActiveAgent{},
	}
}

// AutoMigrate creates or updates the store tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Reset drops and recreates the store tables. Used by `flagman db reset`;
// schema changes beyond what AutoMigrate handles go through here.
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(AllModels()...); err != nil {
		return fmt.Errorf("db: drop tables: %w", err)
	}
	return AutoMigrate(db)
}
