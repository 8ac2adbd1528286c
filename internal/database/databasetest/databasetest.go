// Package databasetest provides a throwaway database for tests. It is kept
// out of package database so the server binary does not link testing.
package databasetest

import (
	"testing"

	"drink-ledger/internal/config"
	"drink-ledger/internal/database"

	"gorm.io/gorm"
)

// New returns a migrated in-memory SQLite database that is closed when the
// test ends.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: database.MemoryPath})
	if err != nil {
		tb.Fatalf("init test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
