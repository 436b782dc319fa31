package testing

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/KMK-tech-v0/fuel/pkg/database"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
)

// NewSQLiteDB opens a private in-memory database. One connection keeps every
// statement on the same database and serializes transactions.
func NewSQLiteDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}
	return db
}

// NewSQLiteClient wraps NewSQLiteDB in a database.Client with fresh metrics.
// SQLite has no isolation levels, so the driver default is used.
func NewSQLiteClient(t *testing.T, models ...interface{}) (*database.Client, *metrics.Metrics) {
	t.Helper()

	db := NewSQLiteDB(t, models...)
	m := metrics.New(metrics.DefaultConfig("fuel-test"))
	opts := database.DefaultOptions("sqlite")
	opts.Isolation = sql.LevelDefault

	client, err := database.NewClient(db, opts, m, logging.Discard())
	require.NoError(t, err)
	return client, m
}

// AssertEventually asserts that a condition becomes true within a timeout
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()
	require.Eventually(t, condition, timeout, 10*time.Millisecond, message)
}

// CreateTestContext creates a context with a timeout for tests
func CreateTestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
