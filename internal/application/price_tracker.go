package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
	"github.com/KMK-tech-v0/fuel/pkg/middleware"
)

const (
	msgPriceRecorded = "Fuel price added and fluctuation recorded successfully"
	msgPriceFailed   = "Failed to add fuel price"
)

// PriceTracker appends prices and classifies each against its predecessor
type PriceTracker struct {
	uow     domain.UnitOfWork
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewPriceTracker creates a PriceTracker. m may be nil.
func NewPriceTracker(uow domain.UnitOfWork, m *metrics.Metrics, logger *logging.Logger) *PriceTracker {
	return &PriceTracker{
		uow:     uow,
		metrics: m,
		logger:  logger.WithComponent("price_tracker"),
	}
}

// RecordPrice inserts the price and its fluctuation in one unit of work. The
// fuel type row lock serializes concurrent submissions for the same fuel.
func (t *PriceTracker) RecordPrice(ctx context.Context, cmd RecordPriceCommand) (*PriceResultDTO, error) {
	if appErr := middleware.ValidateStruct(&cmd); appErr != nil {
		return nil, appErr
	}

	date, err := time.Parse(domain.EffectiveDateLayout, cmd.EffectiveDate)
	if err != nil {
		return nil, fieldError("effectiveDate", "must be a valid date in format "+domain.EffectiveDateLayout, err)
	}
	entry, err := domain.NewFuelPriceEntry(cmd.FuelTypeID.int64(), decimal.RequireFromString(cmd.Price.String()), date)
	if err != nil {
		return nil, fieldError("price", "must be a number greater than or equal to 0 with at most 4 decimal places", err)
	}
	entry.SupplierID = cmd.SupplierID.optionalInt64()
	entry.TownshipID = cmd.TownshipID.optionalInt64()
	entry.SiteID = cmd.SiteID.optionalInt64()

	var fluctuation *domain.PriceFluctuation
	err = t.uow.Do(ctx, "record_price", func(tx domain.Tx) error {
		prices := tx.Prices()

		if err := prices.LockFuelType(ctx, entry.FuelTypeID); err != nil {
			if errors.Is(err, domain.ErrUnknownReference) {
				return fieldError("fuelTypeID", "does not exist", err)
			}
			return err
		}
		if err := prices.Insert(ctx, entry); err != nil {
			return err
		}

		previous, err := prices.Previous(ctx, entry)
		if err != nil {
			return err
		}

		fluctuation = domain.NewPriceFluctuation(entry, previous, cmd.Notes)
		return prices.InsertFluctuation(ctx, fluctuation)
	})
	if err != nil {
		appErr := toAppError(err, "record price", msgPriceFailed)
		logFailure(t.logger.WithContext(ctx), appErr, "Failed to record price", "fuelTypeId", entry.FuelTypeID)
		return nil, appErr
	}

	if t.metrics != nil {
		t.metrics.RecordFluctuation(string(fluctuation.FluctuationType))
	}
	t.logger.Audit(ctx, "record_price", "fuel_price", entry.FuelPriceIDString(), map[string]any{
		"fuelTypeId":      entry.FuelTypeID,
		"price":           entry.Price.String(),
		"effectiveDate":   entry.EffectiveDate.Format(domain.EffectiveDateLayout),
		"fluctuationType": fluctuation.FluctuationType.String(),
	})

	return &PriceResultDTO{
		Message:           msgPriceRecorded,
		FuelPriceID:       entry.FuelPriceID,
		FluctuationID:     fluctuation.FluctuationID,
		FluctuationType:   fluctuation.FluctuationType.String(),
		PreviousPrice:     toOptionalFloat(fluctuation.PreviousPrice),
		FluctuationAmount: toOptionalFloat(fluctuation.FluctuationAmount),
	}, nil
}
