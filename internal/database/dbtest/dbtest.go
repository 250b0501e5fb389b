// Package dbtest opens throwaway databases for package tests.
package dbtest

import (
	"testing"

	"storefront/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New returns a migrated in-memory SQLite database private to t.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=off"
	db, err := database.NewConnection("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
