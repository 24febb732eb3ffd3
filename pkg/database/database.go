package database

import (
	"fmt"
	"time"

	"learning_aid_backend/internal/config"
	"learning_aid_backend/internal/model"
	applog "learning_aid_backend/pkg/logger"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver for the configured database.
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		}
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
				cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.Charset, cfg.ParseTime)
		}
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	logMode := logger.Warn
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}
	err = retry.Do(
		sqlDB.Ping,
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			applog.Log.Warn("Database ping failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	applog.Log.Info("Database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.VocabularyItem{},
		&model.GrammarPoint{},
		&model.KaiwaScenario{},
		&model.ProgressRecord{},
		&model.ChatMessage{},
	)
	if err != nil {
		return err
	}

	applog.Log.Info("Database migration completed")
	return nil
}
