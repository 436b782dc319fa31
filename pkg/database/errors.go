package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/KMK-tech-v0/fuel/pkg/resilience"
)

// PostgreSQL SQLSTATE codes the service reacts to
const (
	PgUniqueViolation      = "23505"
	PgForeignKeyViolation  = "23503"
	PgCheckViolation       = "23514"
	PgSerializationFailure = "40001"
	PgDeadlockDetected     = "40P01"
	PgLockNotAvailable     = "55P03"
	PgQueryCanceled        = "57014"
	PgAdminShutdown        = "57P01"
	PgCrashShutdown        = "57P02"
	PgCannotConnectNow     = "57P03"
	PgTooManyConnections   = "53300"
)

// PgErrorCode returns the SQLSTATE of a wrapped *pgconn.PgError, or "".
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsConnectionError reports whether err means the store could not be reached,
// as opposed to a statement that was rejected.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	switch code := PgErrorCode(err); {
	case strings.HasPrefix(code, "08"):
		return true
	case code == PgAdminShutdown, code == PgCrashShutdown, code == PgCannotConnectNow, code == PgTooManyConnections:
		return true
	case code != "":
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsRetryableConflict reports whether the transaction lost a race and can be replayed.
func IsRetryableConflict(err error) bool {
	switch PgErrorCode(err) {
	case PgSerializationFailure, PgDeadlockDetected, PgLockNotAvailable:
		return true
	default:
		return false
	}
}
