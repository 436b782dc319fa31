package domain

import "errors"

// Domain errors
var (
	// ErrInsufficientStock is returned when a debit would take stock below zero
	ErrInsufficientStock = errors.New("insufficient stock at source location")

	// ErrStoreUnavailable is returned when the store cannot be reached
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreWriteFailure is returned when the store rejects a write
	ErrStoreWriteFailure = errors.New("store write failure")

	// ErrUnknownReference is returned when a referenced fuel type, price or location does not exist
	ErrUnknownReference = errors.New("unknown reference")

	ErrInvalidLocationKind = errors.New("invalid location kind")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidPrice        = errors.New("price must not be negative")
	ErrInvalidMovement     = errors.New("invalid movement")
)
