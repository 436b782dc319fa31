package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/KMK-tech-v0/fuel/internal/domain"
)

// InventoryLedger applies stock changes through the inventory store of one
// transaction. It never commits or rolls back.
type InventoryLedger struct {
	store domain.InventoryStore
}

// NewInventoryLedger binds a ledger to the store of the active transaction
func NewInventoryLedger(store domain.InventoryStore) *InventoryLedger {
	return &InventoryLedger{store: store}
}

// GetStock returns the locked current stock, or zero when no record exists
func (l *InventoryLedger) GetStock(ctx context.Context, key domain.InventoryKey) (decimal.Decimal, error) {
	record, err := l.store.Lock(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if record == nil {
		return decimal.Zero, nil
	}
	return record.CurrentStock, nil
}

// ApplyDelta credits a non-negative delta unconditionally. A negative delta
// fails with ErrInsufficientStock when it would take stock below zero.
func (l *InventoryLedger) ApplyDelta(ctx context.Context, key domain.InventoryKey, delta decimal.Decimal) error {
	if !key.Location.Kind.IsMetered() {
		return fmt.Errorf("%w: %s holds no inventory", domain.ErrInvalidLocationKind, key.Location.Kind)
	}
	if !delta.IsNegative() {
		return l.store.Credit(ctx, key, delta)
	}

	quantity := delta.Neg()
	record, err := l.store.Lock(ctx, key)
	if err != nil {
		return err
	}
	if !record.CanDebit(quantity) {
		return fmt.Errorf("%s: %w", key, domain.ErrInsufficientStock)
	}

	ok, err := l.store.Debit(ctx, key, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", key, domain.ErrInsufficientStock)
	}
	return nil
}
