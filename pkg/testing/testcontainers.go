package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/KMK-tech-v0/fuel/pkg/database"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresDatabase = "fuel_test"
	postgresUser     = "fuel"
	postgresPassword = "fuel"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DSN       string
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts connections
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase(postgresDatabase),
		postgres.WithUsername(postgresUser),
		postgres.WithPassword(postgresPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
	}, nil
}

// Open connects gorm to the container
func (p *PostgresContainer) Open(ctx context.Context) (*gorm.DB, error) {
	config := database.DefaultConfig()
	config.DSN = p.DSN
	config.MaxOpenConns = 20
	config.SlowThreshold = time.Second
	return database.Open(ctx, config, logging.Discard())
}

// Close terminates the PostgreSQL container
func (p *PostgresContainer) Close(ctx context.Context) error {
	if p.Container != nil {
		return p.Container.Terminate(ctx)
	}
	return nil
}
