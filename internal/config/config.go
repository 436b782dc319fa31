package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/KMK-tech-v0/fuel/pkg/database"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
)

// ServiceName labels logs, metrics, spans and idempotency keys
const ServiceName = "fuel-inventory"

// Version is reported as the service.version resource attribute
const Version = "1.0.0"

// Config holds application configuration
type Config struct {
	ServerAddr     string
	Environment    string
	LogLevel       logging.LogLevel
	RequestTimeout time.Duration

	Database *database.Config

	TracingEnabled bool
	OTLPEndpoint   string

	// ReconcileSchedule is a cron spec; empty disables the scheduled run
	ReconcileSchedule    string
	IdempotencyRetention time.Duration
}

// Load reads an optional env file (".env" when envFile is empty), then the
// environment, and validates the result.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	db := database.DefaultConfig()
	db.DSN = os.Getenv("DATABASE_URL")
	db.Host = getEnv("DB_SERVER", db.Host)
	db.Name = getEnv("DB_NAME", "fuel_inventory")
	db.User = getEnv("DB_UID", db.User)
	db.Password = os.Getenv("DB_PWD")
	db.SSLMode = getEnv("DB_SSLMODE", db.SSLMode)

	var errs []error
	var err error
	if db.Port, err = getInt("DB_PORT", db.Port); err != nil {
		errs = append(errs, err)
	}
	if db.MaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", db.MaxOpenConns); err != nil {
		errs = append(errs, err)
	}
	if db.MaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", db.MaxIdleConns); err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		ServerAddr:        getEnv("SERVER_ADDR", ":5000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		Database:          db,
		TracingEnabled:    getEnv("TRACING_ENABLED", "false") == "true",
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ReconcileSchedule: "@every 15m",
	}
	if v, ok := os.LookupEnv("RECONCILE_SCHEDULE"); ok {
		cfg.ReconcileSchedule = strings.TrimSpace(v)
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.IdempotencyRetention, err = getDuration("IDEMPOTENCY_RETENTION", 24*time.Hour); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated and consistent
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.ServerAddr == "" {
		return errors.New("SERVER_ADDR must not be empty")
	}
	if c.Database == nil {
		return errors.New("database configuration is missing")
	}
	if c.Database.DSN == "" {
		if c.Database.Host == "" {
			return errors.New("DB_SERVER or DATABASE_URL must be provided")
		}
		if c.Database.Name == "" {
			return errors.New("DB_NAME must not be empty")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("DB_PORT %d is out of range", c.Database.Port)
		}
	}
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		c.Database.MaxIdleConns = c.Database.MaxOpenConns
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.IdempotencyRetention <= 0 {
		return errors.New("IDEMPOTENCY_RETENTION must be positive")
	}
	if c.ReconcileSchedule != "" {
		if _, err := cron.ParseStandard(c.ReconcileSchedule); err != nil {
			return fmt.Errorf("RECONCILE_SCHEDULE %q is invalid: %w", c.ReconcileSchedule, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return v, nil
}
