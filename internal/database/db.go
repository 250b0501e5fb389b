package database

import (
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slogWriter routes gorm logger output into slog.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...interface{}) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}

func newLogger() gormlogger.Interface {
	return gormlogger.New(slogWriter{}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// NewConnection opens a connection pool using GORM for driver (postgres or sqlite)
func NewConnection(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger()})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite has a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the schema for every storefront model
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.StockMovement{},
		&model.CartItem{},
		&model.Order{},
		&model.Conversation{},
		&model.Message{},
		&model.Testimonial{},
		&model.EmailTemplate{},
		&model.EmailLog{},
		&model.NewsletterSubscriber{},
		&model.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
