package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := ErrServiceUnavailable("fuel store").Wrap(cause)

	assert.Equal(t, "SERVICE_UNAVAILABLE: fuel store is temporarily unavailable: connection refused", appErr.Error())
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
}

func TestAppError_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		retryable bool
	}{
		{"validation", ErrValidation("bad"), false},
		{"insufficient stock", ErrInsufficientStock(""), false},
		{"store write", ErrStoreWriteFailure(""), false},
		{"unavailable", ErrServiceUnavailable("db"), true},
		{"timeout", ErrTimeout("request"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
		})
	}
}

func TestConstructorDefaults(t *testing.T) {
	assert.Equal(t, "insufficient stock", ErrInsufficientStock("").Message)
	assert.Equal(t, "failed to write to the store", ErrStoreWriteFailure("").Message)
	assert.Equal(t, "fuel type not found", ErrNotFound("fuel type").Message)
	assert.Equal(t, http.StatusGatewayTimeout, ErrTimeout("reconcile").HTTPStatus)
	assert.Equal(t, "BAD_REQUEST: invalid request body", ErrBadRequest("invalid request body").Error())
}

func TestErrValidationWithFields(t *testing.T) {
	appErr := ErrValidationWithFields("validation failed", map[string]string{"quantity": "quantity is required"})

	assert.Equal(t, CodeValidationError, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, "quantity is required", appErr.Details["quantity"])
}

func TestMapDomainError(t *testing.T) {
	t.Run("passes AppError through", func(t *testing.T) {
		original := ErrInsufficientStock("Insufficient stock at source location")
		wrapped := fmt.Errorf("record movement: %w", original)

		assert.Same(t, original, MapDomainError(wrapped))
	})

	t.Run("context deadline becomes timeout", func(t *testing.T) {
		appErr := MapDomainError(fmt.Errorf("query: %w", context.DeadlineExceeded))
		require.NotNil(t, appErr)
		assert.Equal(t, CodeTimeout, appErr.Code)
		assert.True(t, appErr.IsRetryable())
	})

	t.Run("unclassified errors are internal", func(t *testing.T) {
		appErr := MapDomainError(errors.New("fuel type not found"))
		assert.Equal(t, CodeInternalError, appErr.Code)
		assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
		assert.False(t, appErr.IsRetryable())
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, MapDomainError(nil))
	})
}
