package database

import (
	"fmt"

	"drink-ledger/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Date{},
		&models.Record{},
		&models.Attendee{},
		&models.DateAttendee{},
		&models.BlacklistedToken{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
