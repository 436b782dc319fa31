package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// EffectiveDateLayout is the calendar-date format of prices and fluctuations
const EffectiveDateLayout = "2006-01-02"

// FluctuationType classifies a price against its predecessor
type FluctuationType string

const (
	FluctuationIncrease FluctuationType = "Increase"
	FluctuationDecrease FluctuationType = "Decrease"
	FluctuationNoChange FluctuationType = "No Change"
	FluctuationBaseline FluctuationType = "Baseline"
)

func (t FluctuationType) String() string {
	return string(t)
}

// FuelPriceEntry is one append-only price observation
type FuelPriceEntry struct {
	FuelPriceID   int64
	FuelTypeID    int64
	Price         decimal.Decimal
	EffectiveDate time.Time
	SupplierID    *int64
	TownshipID    *int64
	SiteID        *int64
	CreatedAt     time.Time
}

// NewFuelPriceEntry rejects negative or over-precise prices and truncates the
// date to a calendar day
func NewFuelPriceEntry(fuelTypeID int64, price decimal.Decimal, effectiveDate time.Time) (*FuelPriceEntry, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}
	if !FitsScale(price) {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidPrice, price, AmountScale)
	}
	y, m, d := effectiveDate.Date()
	return &FuelPriceEntry{
		FuelTypeID:    fuelTypeID,
		Price:         price,
		EffectiveDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}, nil
}

// FuelPriceIDString formats the id for logs and audit records
func (e *FuelPriceEntry) FuelPriceIDString() string {
	return strconv.FormatInt(e.FuelPriceID, 10)
}

// PriceFluctuation records the change between a price and the one before it
type PriceFluctuation struct {
	FluctuationID     int64
	FuelTypeID        int64
	FluctuationDate   time.Time
	CurrentPrice      decimal.Decimal
	PreviousPrice     *decimal.Decimal
	FluctuationAmount *decimal.Decimal
	FluctuationType   FluctuationType
	Notes             string
}

// Classify compares current against previous. A nil previous is a Baseline.
func Classify(current decimal.Decimal, previous *decimal.Decimal) (FluctuationType, *decimal.Decimal) {
	if previous == nil {
		return FluctuationBaseline, nil
	}
	delta := current.Sub(*previous)
	switch delta.Sign() {
	case 1:
		return FluctuationIncrease, &delta
	case -1:
		return FluctuationDecrease, &delta
	default:
		return FluctuationNoChange, &delta
	}
}

// NewPriceFluctuation classifies entry against previous. Empty notes get a generated description.
func NewPriceFluctuation(entry *FuelPriceEntry, previous *FuelPriceEntry, notes string) *PriceFluctuation {
	var previousPrice *decimal.Decimal
	if previous != nil {
		p := previous.Price
		previousPrice = &p
	}

	kind, delta := Classify(entry.Price, previousPrice)
	if notes == "" {
		notes = describeFluctuation(kind, entry.Price, previousPrice, delta)
	}

	return &PriceFluctuation{
		FuelTypeID:        entry.FuelTypeID,
		FluctuationDate:   entry.EffectiveDate,
		CurrentPrice:      entry.Price,
		PreviousPrice:     previousPrice,
		FluctuationAmount: delta,
		FluctuationType:   kind,
		Notes:             notes,
	}
}

func describeFluctuation(kind FluctuationType, current decimal.Decimal, previous, delta *decimal.Decimal) string {
	switch kind {
	case FluctuationBaseline:
		return fmt.Sprintf("Initial price recorded at %s", current)
	case FluctuationNoChange:
		return fmt.Sprintf("Price unchanged at %s", current)
	default:
		return fmt.Sprintf("Price changed from %s to %s (%s)", previous, current, delta.StringFixed(2))
	}
}
