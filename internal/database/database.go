package database

import (
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"studenthelp/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// Connect opens the database named by dsn and runs migrations.
// A "sqlite://<path>" dsn selects SQLite; anything else is handed to the postgres driver.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := Open(dialectorFor(dsn), logger.Warn)
	if err != nil {
		return nil, err
	}
	slog.Info("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	slog.Info("Database migrated successfully")

	return db, nil
}

// Open opens a gorm handle with the shared logger and error translation settings.
func Open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	// Configure GORM logger
	customLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	return gorm.Open(dialector, &gorm.Config{
		Logger: customLogger,
		// Unique violations come back as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Skill{},
		&models.Connection{},
		&models.Notification{},
		&models.Message{},
	)
}

func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, sqlitePrefix) {
		return sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix))
	}
	return postgres.Open(dsn)
}
