package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryKey identifies one stock counter
type InventoryKey struct {
	FuelTypeID int64
	Location   Location
}

// NewInventoryKey builds a key for a metered location
func NewInventoryKey(fuelTypeID int64, kind LocationKind, locationID int64) (InventoryKey, error) {
	if !kind.IsMetered() {
		return InventoryKey{}, fmt.Errorf("%w: %s holds no inventory", ErrInvalidLocationKind, kind)
	}
	if fuelTypeID <= 0 || locationID <= 0 {
		return InventoryKey{}, fmt.Errorf("%w: fuel type and location ids must be positive", ErrUnknownReference)
	}
	return InventoryKey{FuelTypeID: fuelTypeID, Location: Location{Kind: kind, ID: locationID}}, nil
}

func (k InventoryKey) String() string {
	return fmt.Sprintf("fuel=%d %s", k.FuelTypeID, k.Location)
}

// InventoryRecord is the current stock of one fuel type at one location
type InventoryRecord struct {
	InventoryID  int64
	Key          InventoryKey
	CurrentStock decimal.Decimal
	LastUpdated  time.Time
}

// CanDebit reports whether quantity can be withdrawn without going negative
func (r *InventoryRecord) CanDebit(quantity decimal.Decimal) bool {
	return r != nil && r.CurrentStock.GreaterThanOrEqual(quantity)
}
