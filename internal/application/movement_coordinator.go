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
	msgMovementRecorded = "Fuel transaction added and inventory updated successfully"
	msgMovementFailed   = "Failed to add fuel transaction"
)

// MovementCoordinator records fuel movements and the stock changes they imply
// as one unit of work
type MovementCoordinator struct {
	uow     domain.UnitOfWork
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewMovementCoordinator creates a MovementCoordinator. m may be nil.
func NewMovementCoordinator(uow domain.UnitOfWork, m *metrics.Metrics, logger *logging.Logger) *MovementCoordinator {
	return &MovementCoordinator{
		uow:     uow,
		metrics: m,
		logger:  logger.WithComponent("movement_coordinator"),
	}
}

// RecordMovement validates cmd, checks source stock, inserts the movement,
// debits a metered source and credits the destination. Any failure leaves no trace.
func (c *MovementCoordinator) RecordMovement(ctx context.Context, cmd RecordMovementCommand) (*MovementResultDTO, error) {
	if appErr := middleware.ValidateStruct(&cmd); appErr != nil {
		c.record(cmd.TransactionType, "invalid")
		return nil, appErr
	}

	movement, err := c.buildMovement(cmd)
	if err != nil {
		c.record(cmd.TransactionType, "invalid")
		return nil, err
	}
	logger := c.logger.WithContext(ctx).WithFields(map[string]any{
		"usageTransitionId": movement.UsageTransitionID,
		"source":            movement.Source.String(),
		"destination":       movement.Destination.String(),
		"fuelTypeId":        movement.FuelTypeID,
		"quantity":          movement.Quantity.String(),
	})

	err = c.uow.Do(ctx, "record_movement", func(tx domain.Tx) error {
		ledger := NewInventoryLedger(tx.Inventory())

		if movement.DebitsSource() {
			stock, err := ledger.GetStock(ctx, movement.SourceKey())
			if err != nil {
				return err
			}
			if stock.LessThan(movement.Quantity) {
				return domain.ErrInsufficientStock
			}
		}

		if movement.FuelPriceID != nil {
			price, err := tx.Prices().Get(ctx, *movement.FuelPriceID)
			if errors.Is(err, domain.ErrUnknownReference) {
				return fieldError("fuelPriceID", "does not exist", err)
			}
			if err != nil {
				return err
			}
			movement.LinkPrice(price.FuelPriceID, price.Price)
		}

		if err := tx.Movements().Insert(ctx, movement); err != nil {
			return err
		}
		if movement.DebitsSource() {
			if err := ledger.ApplyDelta(ctx, movement.SourceKey(), movement.Quantity.Neg()); err != nil {
				return err
			}
		}
		return ledger.ApplyDelta(ctx, movement.DestinationKey(), movement.Quantity)
	})
	if err != nil {
		appErr := toAppError(err, "record movement", msgMovementFailed)
		switch {
		case errors.Is(err, domain.ErrInsufficientStock):
			logger.Warn("Rejected movement", "reason", "insufficient stock")
			c.record(movement.TransactionType, "rejected")
			if c.metrics != nil {
				c.metrics.RecordStockRejection(string(movement.Source.Kind))
			}
		case appErr.HTTPStatus < 500:
			logFailure(logger, appErr, "Rejected movement")
			c.record(movement.TransactionType, "invalid")
		default:
			logFailure(logger, appErr, "Failed to record movement")
			c.record(movement.TransactionType, "failed")
		}
		return nil, appErr
	}

	c.record(movement.TransactionType, "committed")
	if c.metrics != nil {
		c.metrics.RecordQuantityMoved(movement.FuelTypeID, string(movement.Destination.Kind), movement.Quantity.InexactFloat64())
	}
	c.logger.Audit(ctx, "record_movement", "fuel_transaction", movement.UsageTransitionID, map[string]any{
		"transactionType": movement.TransactionType,
		"source":          movement.Source.String(),
		"destination":     movement.Destination.String(),
		"fuelTypeId":      movement.FuelTypeID,
		"quantity":        movement.Quantity.String(),
	})

	return &MovementResultDTO{
		Message:           msgMovementRecorded,
		UsageTransitionID: movement.UsageTransitionID,
	}, nil
}

func (c *MovementCoordinator) buildMovement(cmd RecordMovementCommand) (*domain.FuelMovement, error) {
	sourceKind, err := domain.ParseLocationKind(cmd.SourceLocationType)
	if err != nil {
		return nil, fieldError("sourceLocationType", "must be one of: Supplier Warehouse Site", err)
	}
	destinationKind, err := domain.ParseLocationKind(cmd.DestinationLocationType)
	if err != nil {
		return nil, fieldError("destinationLocationType", "must be one of: Warehouse Site", err)
	}
	date, err := time.Parse(time.RFC3339, cmd.TransactionDate)
	if err != nil {
		return nil, fieldError("transactionDate", "must be a valid date in format "+TransactionDateLayout, err)
	}

	costs := domain.Costs{
		Transportation:   decimalOrZero(cmd.TransportationCost),
		LoadingUnloading: decimalOrZero(cmd.LoadingUnloadingCost),
		Other:            decimalOrZero(cmd.OtherCost),
	}

	movement, err := domain.NewFuelMovement(
		cmd.TransactionType,
		domain.Location{Kind: sourceKind, ID: cmd.SourceLocationID.int64()},
		domain.Location{Kind: destinationKind, ID: cmd.DestinationLocationID.int64()},
		cmd.FuelTypeID.int64(),
		decimal.RequireFromString(cmd.Quantity.String()),
		date,
		costs,
		cmd.Notes,
	)
	if err != nil {
		return nil, toAppError(err, "record movement", msgMovementFailed)
	}
	movement.FuelPriceID = cmd.FuelPriceID.optionalInt64()
	return movement, nil
}

func (c *MovementCoordinator) record(transactionType, status string) {
	if c.metrics != nil {
		c.metrics.RecordMovement(transactionType, status)
	}
}

// decimalOrZero expects an already validated number
func decimalOrZero(n Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(n.String())
}
