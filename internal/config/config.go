package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// Security
	JWTSecret string

	// Application
	AppEnv   string
	AppPort  string
	LogLevel string

	// Rate Limiting
	RateLimitPerUser    int
	RateLimitWindowSecs int

	// Ledger transactions
	TxMaxRetries int

	// Expiry sweep
	SweepCron       string
	SweepLockTTLSec int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Telegram ops channel for expiry notices (optional)
	BotToken     string
	NoticeChatID int64

	// Rewards
	RewardsFile    string
	RewardTimezone string
	Rewards        RewardTable
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBDriver:   getEnv("DB_DRIVER", DBDriverPostgres),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "jeju"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "jeju_points"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBPath:     getEnv("DB_PATH", "jeju_points.db"),

		JWTSecret: getEnv("JWT_SECRET_KEY", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitPerUser:    getEnvInt("RATE_LIMIT_PER_USER", 20),
		RateLimitWindowSecs: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),

		TxMaxRetries: getEnvInt("TX_MAX_RETRIES", 3),

		SweepCron:       getEnv("SWEEP_CRON", "*/30 * * * *"),
		SweepLockTTLSec: getEnvInt("SWEEP_LOCK_TTL_SECONDS", 600),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),

		BotToken:     getEnv("BOT_TOKEN", ""),
		NoticeChatID: getEnvInt64("NOTICE_CHAT_ID", 0),

		RewardsFile:    getEnv("REWARDS_FILE", ""),
		RewardTimezone: getEnv("REWARD_TIMEZONE", "Asia/Seoul"),
	}

	rewards, err := LoadRewardTable(cfg.RewardsFile)
	if err != nil {
		return nil, err
	}
	cfg.Rewards = rewards

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DBDriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DBDriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DBDriverPostgres, DBDriverSQLite)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.TxMaxRetries < 1 {
		return fmt.Errorf("TX_MAX_RETRIES must be at least 1")
	}
	if _, err := time.LoadLocation(c.RewardTimezone); err != nil {
		return fmt.Errorf("invalid REWARD_TIMEZONE: %w", err)
	}
	if c.BotToken != "" && c.NoticeChatID == 0 {
		return fmt.Errorf("NOTICE_CHAT_ID is required when BOT_TOKEN is set")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBDriver != DBDriverPostgres {
		return fmt.Errorf("DB_DRIVER must be 'postgres' in production")
	}
	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetRateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSecs) * time.Second
}

func (c *Config) GetSweepLockTTL() time.Duration {
	return time.Duration(c.SweepLockTTLSec) * time.Second
}

// GetRewardLocation returns the zone used for capture timestamps that carry
// no offset. Validate guarantees it loads.
func (c *Config) GetRewardLocation() *time.Location {
	loc, err := time.LoadLocation(c.RewardTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
