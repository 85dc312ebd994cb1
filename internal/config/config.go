package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database for SCANNER_TIMEZONE

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string
	ConfigFile  string

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Services
	Scanner ScannerConfig
	API     APIConfig

	// Signal evaluation tuning
	Filters Filters
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Password        string
	DB              int
	PoolSize        int
	MinIdleConns    int
	SignalStream    string
	StreamMaxLength int64
}

// ScannerConfig holds batch scanner configuration
type ScannerConfig struct {
	Exchange     string
	Strategies   []string
	Codes        []string // explicit codes; overrides the exchange filter when set
	Limit        int      // 0 scans every matching stock
	WorkerCount  int
	LookbackBars int
	Schedule     string // cron spec with seconds; empty runs once
	AsOf         string // YYYY-MM-DD for a one-shot historical scan
	Timezone     string
	PersistAll   bool // persist rejected results too
	StockTimeout time.Duration
	MetricsPort  int
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimitRPS int
}

// Load loads configuration from environment variables and the filters file.
// It automatically loads .env file if it exists in the current directory.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ConfigFile:  getEnv("SCREENER_CONFIG_FILE", "config.yaml"),
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "asx_screener"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MaxRetries:      getEnvAsInt("DB_MAX_RETRIES", 3),
			RetryDelay:      getEnvAsDuration("DB_RETRY_DELAY", 100*time.Millisecond),
		},
		Redis: RedisConfig{
			Enabled:         getEnvAsBool("REDIS_ENABLED", false),
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            getEnvAsInt("REDIS_PORT", 6379),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			PoolSize:        getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:    getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			SignalStream:    getEnv("REDIS_SIGNAL_STREAM", "signals"),
			StreamMaxLength: int64(getEnvAsInt("REDIS_STREAM_MAX_LENGTH", 10000)),
		},
		Scanner: ScannerConfig{
			Exchange:     getEnv("SCANNER_EXCHANGE", "ASX"),
			Strategies:   getEnvAsStringSlice("SCANNER_STRATEGIES", []string{"mri"}),
			Codes:        getEnvAsStringSlice("SCANNER_CODES", []string{}),
			Limit:        getEnvAsInt("SCANNER_LIMIT", 0),
			WorkerCount:  getEnvAsInt("SCANNER_WORKER_COUNT", 4),
			LookbackBars: getEnvAsInt("SCANNER_LOOKBACK_BARS", 300),
			Schedule:     getEnv("SCANNER_SCHEDULE", ""),
			AsOf:         getEnv("SCANNER_AS_OF", ""),
			Timezone:     getEnv("SCANNER_TIMEZONE", "Australia/Sydney"),
			PersistAll:   getEnvAsBool("SCANNER_PERSIST_ALL", false),
			StockTimeout: getEnvAsDuration("SCANNER_STOCK_TIMEOUT", 10*time.Second),
			MetricsPort:  getEnvAsInt("SCANNER_METRICS_PORT", 0),
		},
		API: APIConfig{
			Port:         getEnvAsInt("API_PORT", 8090),
			ReadTimeout:  getEnvAsDuration("API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("API_WRITE_TIMEOUT", 15*time.Second),
			RateLimitRPS: getEnvAsInt("API_RATE_LIMIT_RPS", 20),
		},
	}

	filters, err := LoadFilters(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load filters: %w", err)
	}
	cfg.Filters = filters

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Scanner.WorkerCount < 1 {
		return fmt.Errorf("SCANNER_WORKER_COUNT must be at least 1")
	}
	if c.Scanner.LookbackBars < 1 {
		return fmt.Errorf("SCANNER_LOOKBACK_BARS must be at least 1")
	}
	if len(c.Scanner.Strategies) == 0 {
		return fmt.Errorf("SCANNER_STRATEGIES must contain at least one strategy")
	}
	if _, err := time.LoadLocation(c.Scanner.Timezone); err != nil {
		return fmt.Errorf("SCANNER_TIMEZONE is invalid: %w", err)
	}
	if c.Scanner.AsOf != "" {
		if _, err := time.Parse("2006-01-02", c.Scanner.AsOf); err != nil {
			return fmt.Errorf("SCANNER_AS_OF must be YYYY-MM-DD: %w", err)
		}
	}
	return c.Filters.Validate()
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Split by comma and trim spaces
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
