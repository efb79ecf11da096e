package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/courtline/audittrail/pkg/observability"
	"github.com/courtline/audittrail/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Retention configuration
	Retention RetentionConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration for the admin API
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RetentionConfig holds retention sweep configuration
type RetentionConfig struct {
	// Schedule is a cron expression for policy-driven sweeps
	Schedule string

	// SweepTimeout bounds one full sweep across all tables
	SweepTimeout time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Retention:     loadRetentionConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("AUDITTRAIL_HOST", "0.0.0.0"),
		Port:            getEnv("AUDITTRAIL_PORT", "8080"),
		ReadTimeout:     getEnvDuration("AUDITTRAIL_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("AUDITTRAIL_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("AUDITTRAIL_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("AUDITTRAIL_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("AUDITTRAIL_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}
	if pgURL := getEnv("AUDITTRAIL_POSTGRES_URL", os.Getenv("DATABASE_URL")); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("AUDITTRAIL_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxOpenConns = maxConns
	}
	if idleConns := getEnvInt("AUDITTRAIL_POSTGRES_IDLE_CONNS", 0); idleConns > 0 {
		cfg.MaxIdleConns = idleConns
	}
	if timeout := getEnvDuration("AUDITTRAIL_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.ConnectTimeout = timeout
	}
	if sqlitePath := getEnv("AUDITTRAIL_SQLITE_PATH", ""); sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}

	return cfg
}

func loadRetentionConfig() RetentionConfig {
	return RetentionConfig{
		// Sweep nightly at 03:30 UTC by default
		Schedule:     getEnv("AUDITTRAIL_RETENTION_SCHEDULE", "30 3 * * *"),
		SweepTimeout: getEnvDuration("AUDITTRAIL_RETENTION_SWEEP_TIMEOUT", 10*time.Minute),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("AUDITTRAIL_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("AUDITTRAIL_METRICS_ENABLED", true),
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres storage requires AUDITTRAIL_POSTGRES_URL or DATABASE_URL")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite storage requires AUDITTRAIL_SQLITE_PATH")
		}
	case "memory":
		// No configuration needed
	default:
		return fmt.Errorf("unknown storage type: %q", c.Storage.Type)
	}

	if c.Retention.Schedule == "" {
		return fmt.Errorf("retention schedule must not be empty")
	}
	if c.Retention.SweepTimeout <= 0 {
		return fmt.Errorf("retention sweep timeout must be positive")
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
