package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// OpenTestDB creates a migrated SQLite database in a per-test temp directory.
func OpenTestDB(t testing.TB) (*sql.DB, *gorm.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "menus.db")
	if err := Migrate(path); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	sqlDB, gormDB, err := Open(path)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return sqlDB, gormDB
}
