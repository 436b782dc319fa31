package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
	"github.com/KMK-tech-v0/fuel/pkg/resilience"
	"github.com/KMK-tech-v0/fuel/pkg/tracing"
)

// Config holds PostgreSQL connection configuration
type Config struct {
	// DSN overrides the discrete fields when set (e.g. DATABASE_URL).
	DSN string

	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
	SlowThreshold   time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		Name:            "fuel",
		User:            "postgres",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		SlowThreshold:   200 * time.Millisecond,
	}
}

// DataSourceName renders the connection URL handed to pgx.
func (c *Config) DataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Open connects to PostgreSQL, pings with retry and applies pool settings.
func Open(ctx context.Context, config *Config, logger *logging.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: NewGormLogger(logger, config.SlowThreshold),
	}

	backoff := resilience.DefaultBackoff()
	backoff.Attempts = 5
	backoff.Initial = 500 * time.Millisecond
	backoff.Retryable = IsConnectionError

	db, err := resilience.Retry(ctx, backoff, func() (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(config.DataSourceName()), gormConfig)
		if err != nil {
			logger.WithError(err).Warn("PostgreSQL not reachable, retrying")
			return nil, err
		}
		return db, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return db, nil
}

// NewGormLogger routes gorm's statement log through slog at warn level.
func NewGormLogger(logger *logging.Logger, slowThreshold time.Duration) gormlogger.Interface {
	writer := slog.NewLogLogger(logger.WithComponent("gorm").Handler(), slog.LevelWarn)
	return gormlogger.New(writer, gormlogger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Options tune a Client
type Options struct {
	// Name labels the breaker, spans and metrics.
	Name string

	// Isolation is applied to every unit of work. sql.LevelDefault leaves the driver default.
	Isolation sql.IsolationLevel

	Breaker *resilience.BreakerConfig
}

// DefaultOptions returns read-committed units of work behind a breaker that only
// counts connection failures.
func DefaultOptions(name string) Options {
	breaker := resilience.DefaultBreakerConfig(name)
	breaker.HalfOpenRequests = 5
	return Options{
		Name:      name,
		Isolation: sql.LevelReadCommitted,
		Breaker:   breaker,
	}
}

// Client wraps gorm with a circuit breaker, tracing and metrics around units of work
type Client struct {
	db        *gorm.DB
	name      string
	isolation sql.IsolationLevel
	breaker   *resilience.Breaker
	metrics   *metrics.Metrics
	logger    *logging.Logger
	tracer    trace.Tracer
}

// NewClient instruments db and returns a Client. m may be nil.
func NewClient(db *gorm.DB, opts Options, m *metrics.Metrics, logger *logging.Logger) (*Client, error) {
	if opts.Name == "" {
		opts.Name = "postgres"
	}
	breakerConfig := opts.Breaker
	if breakerConfig == nil {
		breakerConfig = resilience.DefaultBreakerConfig(opts.Name)
	}
	breakerConfig.IsSuccessful = func(err error) bool {
		return err == nil || !IsConnectionError(err)
	}
	breakerConfig.OnStateChange = func(name string, _, to gobreaker.State) {
		if m == nil {
			return
		}
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}

	if err := db.Use(NewInstrumentation(m, logger)); err != nil {
		return nil, fmt.Errorf("failed to register instrumentation: %w", err)
	}

	return &Client{
		db:        db,
		name:      opts.Name,
		isolation: opts.Isolation,
		breaker:   resilience.NewBreaker(breakerConfig, logger.Logger),
		metrics:   m,
		logger:    logger.WithComponent("database"),
		tracer:    otel.Tracer("database"),
	}, nil
}

// DB returns the underlying gorm handle
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Breaker exposes the circuit breaker state for readiness reporting
func (c *Client) Breaker() *resilience.Breaker {
	return c.breaker
}

// Transaction runs fn in one transaction. fn's error or a done context rolls it back.
func (c *Client) Transaction(ctx context.Context, unit string, fn func(tx *gorm.DB) error) error {
	start := time.Now()

	err := c.breaker.Run(ctx, func(ctx context.Context) error {
		return tracing.Within(ctx, c.tracer, "uow."+unit, func(ctx context.Context) error {
			var opts *sql.TxOptions
			if c.isolation != sql.LevelDefault {
				opts = &sql.TxOptions{Isolation: c.isolation}
			}
			return c.db.WithContext(ctx).Transaction(fn, opts)
		}, attribute.String("db.unit", unit))
	})

	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordTransaction(unit, err == nil, duration)
	}
	if err != nil {
		c.logger.WithContext(ctx).Debug("Unit of work rolled back", "unit", unit, "durationMs", duration.Milliseconds(), "error", err)
	}
	return err
}

// Query runs a read outside any explicit transaction
func (c *Client) Query(ctx context.Context, name string, fn func(db *gorm.DB) error) error {
	return c.breaker.Run(ctx, func(ctx context.Context) error {
		return tracing.Within(ctx, c.tracer, "query."+name, func(ctx context.Context) error {
			return fn(c.db.WithContext(ctx))
		})
	})
}

// HealthCheck pings the database through the breaker and refreshes the pool gauge
func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	err = c.breaker.Run(ctx, sqlDB.PingContext)

	if c.metrics != nil {
		c.metrics.SetDBConnections(sqlDB.Stats().OpenConnections)
	}
	return err
}

// Close closes the underlying pool
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
