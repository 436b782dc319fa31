package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/pkg/database"
)

// classify wraps a driver error in the matching domain sentinel. Context
// errors pass through untouched so callers can report a timeout.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %w", op, context.DeadlineExceeded, err)
	}
	if database.IsConnectionError(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnknownReference, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreWriteFailure, err)
}

// SQLite reports foreign key failures only through the message text
func isForeignKeyViolation(err error) bool {
	if database.PgErrorCode(err) == database.PgForeignKeyViolation || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
