package database

import (
	"testing"

	"recipe-restful/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenTestDB returns a migrated, private in-memory SQLite database that lives until the
// test ends. A uuid-named shared cache keeps every pooled connection on the same database
// while isolating tests from one another.
func OpenTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", URL: dsn}, zap.NewNop())
	if err != nil {
		tb.Fatalf("failed to connect to test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		tb.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get test database pool: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
