package database

import (
	"fmt"

	"github.com/sefazor/events-backend/internal/models"
	"gorm.io/gorm"
)

// Open picks the dialector by driver name.
func Open(driver, url string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return NewPostgres(url)
	case "sqlite":
		return NewSQLite(url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// RunMigrations creates or updates the schema. Order matters: referenced
// tables first so foreign keys can be attached.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventParticipant{},
		&models.Review{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
