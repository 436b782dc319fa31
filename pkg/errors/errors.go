// Package errors defines the API error envelope shared by every fuel endpoint.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the "code" field of an error response
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeStoreWriteFailure  = "STORE_WRITE_FAILURE"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// AppError is an error a handler can render directly
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails replaces the per-field details
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Wrap records the underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// IsRetryable reports whether resending the same request may succeed
func (e *AppError) IsRetryable() bool {
	return e.Code == CodeServiceUnavailable || e.Code == CodeTimeout
}

// NewAppError creates an AppError
func NewAppError(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// ErrValidation rejects malformed or inconsistent input
func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrValidationWithFields rejects input with one message per offending field
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return ErrValidation(message).WithDetails(fields)
}

// ErrBadRequest rejects a body or query that could not be decoded at all
func ErrBadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

// ErrNotFound reports a missing resource
func ErrNotFound(resource string) *AppError {
	return NewAppError(CodeNotFound, resource+" not found", http.StatusNotFound)
}

// ErrInsufficientStock rejects a debit the source record cannot cover
func ErrInsufficientStock(message string) *AppError {
	return NewAppError(CodeInsufficientStock, orDefault(message, "insufficient stock"), http.StatusBadRequest)
}

// ErrStoreWriteFailure reports a write that was rolled back
func ErrStoreWriteFailure(message string) *AppError {
	return NewAppError(CodeStoreWriteFailure, orDefault(message, "failed to write to the store"), http.StatusInternalServerError)
}

// ErrServiceUnavailable reports a dependency that cannot be reached right now
func ErrServiceUnavailable(service string) *AppError {
	return NewAppError(CodeServiceUnavailable, service+" is temporarily unavailable", http.StatusServiceUnavailable)
}

// ErrTimeout reports an operation that ran past its deadline
func ErrTimeout(operation string) *AppError {
	return NewAppError(CodeTimeout, operation+" timed out", http.StatusGatewayTimeout)
}

// ErrInternal is the response for anything unclassified
func ErrInternal(message string) *AppError {
	return NewAppError(CodeInternalError, orDefault(message, "an internal error occurred"), http.StatusInternalServerError)
}

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// MapDomainError turns any error into an AppError. Errors that are not already
// classified become TIMEOUT for a done context and INTERNAL_ERROR otherwise.
func MapDomainError(err error) *AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		if appErr, ok := AsAppError(err); ok {
			return appErr
		}
		return ErrTimeout("request").Wrap(err)
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return ErrInternal("").Wrap(err)
}
