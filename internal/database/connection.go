package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/mroshb/jeju_points/internal/config"
	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	if cfg.DBDriver == config.DBDriverSQLite {
		db, err := openSQLite(sqliteFileDSN(cfg.DBPath), logLevel)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connected", "driver", cfg.DBDriver, "path", cfg.DBPath)
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(logLevel),
		NowFunc: nowUTC,
		// Ledger writes always run in explicit transactions
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected", "driver", cfg.DBDriver, "host", cfg.DBHost)
	return db, nil
}

// OpenSQLite opens a SQLite database through the pure-Go driver. It is used
// for local runs and by package tests with an in-memory DSN.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return openSQLite(dsn, gormlogger.Silent)
}

// OpenMemory opens a private in-memory SQLite database and migrates it.
func OpenMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.NewString())
	db, err := OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func openSQLite(dsn string, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(logLevel),
		NowFunc:                nowUTC,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite has a single writer; one connection serializes ledger
	// transactions instead of failing them with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

func sqliteFileDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// feedRewardIndex lets each feed earn each upload reward once per user.
var feedRewardIndex = fmt.Sprintf(
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_point_logs_feed_reward ON point_logs (user_id, type, related_id) WHERE type IN ('%s')",
	strings.Join(models.FeedLogTypes, "', '"),
)

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Account{},
		&models.PointLog{},
		&models.GeoClaim{},
		&models.PointBox{},
		&models.PointBoxClaim{},
		&models.ChatNotice{},
	)

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Partial index: both postgres and sqlite accept the WHERE clause
	if err := db.Exec(feedRewardIndex).Error; err != nil {
		return fmt.Errorf("failed to create feed reward index: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
