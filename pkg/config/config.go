package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverBadger   = "badger"
	StoreDriverMemory   = "memory"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Storage
	StoreDriver string
	Database    DatabaseConfig
	Badger      BadgerConfig

	// Redis
	Redis RedisConfig

	// External APIs
	MFAPI MFAPIConfig

	// Refresh pipeline
	Refresh RefreshConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// BadgerConfig holds the embedded store location
type BadgerConfig struct {
	Path string
}

// MFAPIConfig holds mfapi.in (scheme catalog + NAV history) configuration
type MFAPIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec int // 초당 요청 수 (0 = 무제한)
	MaxRetries int
}

// RefreshConfig holds refresh scheduling and sizing
type RefreshConfig struct {
	Interval       string // cron spec, e.g. "@every 24h"
	ScheduledLimit int
	OnDemandLimit  int
	StartupLimit   int
	Workers        int
	PipelineFile   string // optional YAML with metric windows
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},
		Badger: BadgerConfig{
			Path: getEnv("BADGER_PATH", "data/mfrank"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		MFAPI: MFAPIConfig{
			BaseURL:    getEnv("MFAPI_BASE_URL", "https://api.mfapi.in"),
			Timeout:    getEnvAsDuration("MFAPI_TIMEOUT", "10s"),
			RatePerSec: getEnvAsInt("MFAPI_RATE_PER_SEC", 5),
			MaxRetries: getEnvAsInt("MFAPI_MAX_RETRIES", 3),
		},

		Refresh: RefreshConfig{
			Interval:       getEnv("REFRESH_INTERVAL", "@every 24h"),
			ScheduledLimit: getEnvAsInt("REFRESH_SCHEDULED_LIMIT", 200),
			OnDemandLimit:  getEnvAsInt("REFRESH_ON_DEMAND_LIMIT", 50),
			StartupLimit:   getEnvAsInt("REFRESH_STARTUP_LIMIT", 50),
			Workers:        getEnvAsInt("REFRESH_WORKERS", 1),
			PipelineFile:   getEnv("PIPELINE_CONFIG", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreDriverBadger:
		if c.Badger.Path == "" {
			return fmt.Errorf("BADGER_PATH is required when STORE_DRIVER=badger")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: postgres, badger, memory")
	}

	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Refresh.Workers < 1 {
		return fmt.Errorf("REFRESH_WORKERS must be at least 1")
	}

	return nil
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
