package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// UnitOfWork runs fn inside one transaction. A nil return commits; an error,
// a panic or a done context rolls back.
type UnitOfWork interface {
	Do(ctx context.Context, unit string, fn func(tx Tx) error) error
}

// Tx exposes the stores bound to the active transaction
type Tx interface {
	Inventory() InventoryStore
	Movements() MovementStore
	Prices() PriceStore
}

// InventoryStore persists stock counters
type InventoryStore interface {
	// Lock returns the record under a row lock, or nil when none exists
	Lock(ctx context.Context, key InventoryKey) (*InventoryRecord, error)

	// Credit creates the record on first use and otherwise adds quantity
	Credit(ctx context.Context, key InventoryKey, quantity decimal.Decimal) error

	// Debit subtracts quantity only while stock stays non-negative; false means no row matched
	Debit(ctx context.Context, key InventoryKey, quantity decimal.Decimal) (bool, error)
}

// MovementStore appends movements
type MovementStore interface {
	Insert(ctx context.Context, movement *FuelMovement) error
}

// PriceStore appends prices and fluctuations
type PriceStore interface {
	// LockFuelType row-locks the fuel type, serializing price submissions for it
	LockFuelType(ctx context.Context, fuelTypeID int64) error

	Get(ctx context.Context, fuelPriceID int64) (*FuelPriceEntry, error)
	Insert(ctx context.Context, entry *FuelPriceEntry) error

	// Previous returns the latest entry strictly before entry's effective date, or nil
	Previous(ctx context.Context, entry *FuelPriceEntry) (*FuelPriceEntry, error)

	InsertFluctuation(ctx context.Context, fluctuation *PriceFluctuation) error
}

// ReconciliationSource provides the inputs of a conservation check
type ReconciliationSource interface {
	InventoryRecords(ctx context.Context) ([]InventoryRecord, error)
	StockFlows(ctx context.Context) ([]StockFlow, error)
}
