package application

import (
	"context"
	"errors"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	apperrors "github.com/KMK-tech-v0/fuel/pkg/errors"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/resilience"
)

const (
	msgInsufficientStock = "Insufficient stock at source location"
	msgStoreUnavailable  = "fuel inventory store"
)

// toAppError maps domain and infrastructure errors onto the API taxonomy.
// failure is the client-facing message for an unexpected store error.
func toAppError(err error, operation, failure string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return apperrors.ErrInsufficientStock(msgInsufficientStock).Wrap(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.ErrTimeout(operation).Wrap(err)
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ErrServiceUnavailable(msgStoreUnavailable).Wrap(err)
	case errors.Is(err, domain.ErrUnknownReference):
		return apperrors.ErrValidation("referenced record does not exist").Wrap(err)
	case errors.Is(err, domain.ErrInvalidLocationKind),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidMovement):
		return apperrors.ErrValidation(err.Error()).Wrap(err)
	default:
		return apperrors.ErrStoreWriteFailure(failure).Wrap(err)
	}
}

func fieldError(field, message string, cause error) *apperrors.AppError {
	return apperrors.ErrValidationWithFields("validation failed", map[string]string{field: message}).Wrap(cause)
}

// logFailure logs client errors at warn and everything else at error
func logFailure(logger *logging.Logger, appErr *apperrors.AppError, msg string, args ...any) {
	args = append(args, "code", appErr.Code)
	if appErr.Err != nil {
		args = append(args, "error", appErr.Err.Error())
	}
	if appErr.HTTPStatus < 500 {
		logger.Warn(msg, args...)
		return
	}
	logger.Error(msg, args...)
}
