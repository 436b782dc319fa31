package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransitionIDPrefix prefixes every generated usage transition id
const TransitionIDPrefix = "TRANS-"

// NewTransitionID returns a fresh usage transition id
func NewTransitionID() string {
	return TransitionIDPrefix + uuid.NewString()
}

// AmountScale is the number of decimal places stored for quantities, prices and costs
const AmountScale = 4

// FitsScale reports whether d is stored without rounding
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountScale))
}

// Costs are the ancillary charges of a movement
type Costs struct {
	Transportation   decimal.Decimal
	LoadingUnloading decimal.Decimal
	Other            decimal.Decimal
}

// Sum adds all three charges
func (c Costs) Sum() decimal.Decimal {
	return c.Transportation.Add(c.LoadingUnloading).Add(c.Other)
}

// FuelMovement is an append-only record of fuel moving between two locations
type FuelMovement struct {
	TransactionID     int64
	UsageTransitionID string
	TransactionType   string
	Source            Location
	Destination       Location
	FuelTypeID        int64
	Quantity          decimal.Decimal
	TransactionDate   time.Time
	FuelPriceID       *int64
	Costs             Costs
	TotalCost         *decimal.Decimal
	Notes             string
}

// NewFuelMovement checks the movement invariants and assigns a transition id
func NewFuelMovement(
	transactionType string,
	source, destination Location,
	fuelTypeID int64,
	quantity decimal.Decimal,
	transactionDate time.Time,
	costs Costs,
	notes string,
) (*FuelMovement, error) {
	if strings.TrimSpace(transactionType) == "" {
		return nil, fmt.Errorf("%w: transaction type is required", ErrInvalidMovement)
	}
	if !destination.Kind.CanReceive() {
		return nil, fmt.Errorf("%w: %s cannot receive fuel", ErrInvalidLocationKind, destination.Kind)
	}
	if _, err := ParseLocationKind(string(source.Kind)); err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, quantity)
	}
	if !FitsScale(quantity) {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidQuantity, quantity, AmountScale)
	}
	for _, cost := range []decimal.Decimal{costs.Transportation, costs.LoadingUnloading, costs.Other} {
		if cost.IsNegative() {
			return nil, fmt.Errorf("%w: costs cannot be negative", ErrInvalidPrice)
		}
		if !FitsScale(cost) {
			return nil, fmt.Errorf("%w: cost %s has more than %d decimal places", ErrInvalidPrice, cost, AmountScale)
		}
	}

	return &FuelMovement{
		UsageTransitionID: NewTransitionID(),
		TransactionType:   transactionType,
		Source:            source,
		Destination:       destination,
		FuelTypeID:        fuelTypeID,
		Quantity:          quantity,
		TransactionDate:   transactionDate,
		Costs:             costs,
		Notes:             notes,
	}, nil
}

// LinkPrice attaches a unit price and derives the total cost, rounded to AmountScale
func (m *FuelMovement) LinkPrice(fuelPriceID int64, unitPrice decimal.Decimal) {
	total := m.Costs.Sum().Add(m.Quantity.Mul(unitPrice)).Round(AmountScale)
	m.FuelPriceID = &fuelPriceID
	m.TotalCost = &total
}

// DebitsSource reports whether the source stock is drawn down
func (m *FuelMovement) DebitsSource() bool {
	return m.Source.Kind.IsMetered()
}

// SourceKey is only valid when DebitsSource is true
func (m *FuelMovement) SourceKey() InventoryKey {
	return InventoryKey{FuelTypeID: m.FuelTypeID, Location: m.Source}
}

// DestinationKey returns the key credited by the movement
func (m *FuelMovement) DestinationKey() InventoryKey {
	return InventoryKey{FuelTypeID: m.FuelTypeID, Location: m.Destination}
}
