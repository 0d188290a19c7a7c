package repo

import (
	"testing"

	"quickqr/internal/model"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// newTestDB инициализирует in-memory SQLite (modernc.org/sqlite) для тестов репозитория
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: "file::memory:"}
	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	// Миграции для всех моделей, используемых в репозиториях
	if err := db.AutoMigrate(
		&model.User{},
		&model.QRRecord{},
		&model.ScanMapping{},
		&model.ScanEvent{},
		&model.FieldPermission{},
		&model.QRDesign{},
		&model.QRUsage{},
	); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}
