package repo

import (
	"quickqr/internal/model"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// InitDB открывает соединение и прогоняет миграции. Непустой DSN — postgres,
// иначе локальный sqlite-файл (modernc, без CGO).
func InitDB(dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	if dsn != "" {
		dial = postgres.Open(dsn)
	} else {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: "quickqr.db"}
	}

	// TranslateError превращает нарушения уникальных индексов драйвера
	// в gorm.ErrDuplicatedKey
	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.QRRecord{},
		&model.ScanMapping{},
		&model.ScanEvent{},
		&model.FieldPermission{},
		&model.QRDesign{},
		&model.QRUsage{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
