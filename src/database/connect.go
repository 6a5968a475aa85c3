package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"spottrader/src/model"
)

// MainDB is the read/write database connection used by the application.
// The bot runs as a single instance, so a local sqlite file is the default;
// postgres stays selectable for deployments that already run one.
var MainDB *gorm.DB

// InitMainDB initializes the database connection and runs migrations.
// This should be called once at application startup (e.g. in main()).
func InitMainDB() error {
	config := GetConfig()

	var dialector gorm.Dialector
	switch config.Driver {
	case "postgres":
		dialector = postgres.Open(config.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(config.DatabaseURL)
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB from GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	// Assign to the global variable only after a successful connection.
	MainDB = db

	logrus.WithField("driver", config.Driver).Info("[database] MainDB connection established")

	if err := MainDB.AutoMigrate(
		&model.BotConfig{},
		&model.Position{},
		&model.Trade{},
	); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	logrus.Info("[database] MainDB migrations completed")

	return nil
}
