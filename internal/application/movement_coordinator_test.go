package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	apperrors "github.com/KMK-tech-v0/fuel/pkg/errors"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
)

func TestRecordMovement_SupplierSourceIsNotMetered(t *testing.T) {
	h := newHarness(t)

	result := h.mustMove(t, move("Supplier", "1", "Warehouse", "1", "1000"))

	assert.Equal(t, "Fuel transaction added and inventory updated successfully", result.Message)
	assert.Regexp(t, `^TRANS-[0-9a-f-]{36}$`, result.UsageTransitionID)
	assert.Equal(t, 1000.0, h.stockAt(t, "Warehouse", "1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.MovementsRecorded.WithLabelValues("fuel-test", "Transfer", "committed")))
}

func TestRecordMovement_Conservation(t *testing.T) {
	h := newHarness(t)

	h.mustMove(t, move("Supplier", "1", "Warehouse", "1", "1000"))
	h.mustMove(t, move("Warehouse", "1", "Site", "1", "250.5"))
	h.mustMove(t, move("Warehouse", "1", "Warehouse", "2", "100"))
	h.mustMove(t, move("Site", "1", "Site", "2", "50.25"))
	h.mustMove(t, move("Warehouse", "2", "Warehouse", "2", "40"))

	assert.Equal(t, 649.5, h.stockAt(t, "Warehouse", "1"))
	assert.Equal(t, 100.0, h.stockAt(t, "Warehouse", "2"), "self-transfer nets to zero")
	assert.Equal(t, 200.25, h.stockAt(t, "Site", "1"))
	assert.Equal(t, 50.25, h.stockAt(t, "Site", "2"))
	assert.Equal(t, 5, h.movementCount(t))

	report, err := h.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Consistent, "%+v", report.Discrepancies)
	assert.Equal(t, 4, report.KeysChecked)
}

func TestRecordMovement_InsufficientStockHasNoSideEffects(t *testing.T) {
	h := newHarness(t)
	h.mustMove(t, move("Supplier", "1", "Warehouse", "1", "30"))

	_, err := h.coordinator.RecordMovement(context.Background(), move("Warehouse", "1", "Site", "1", "30.0001"))

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, "Insufficient stock at source location", appErr.Message)

	assert.Equal(t, 30.0, h.stockAt(t, "Warehouse", "1"))
	assert.Equal(t, 0.0, h.stockAt(t, "Site", "1"))
	assert.Equal(t, 1, h.movementCount(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StockRejections.WithLabelValues("fuel-test", "Warehouse")))
}

func TestRecordMovement_NonNegativity(t *testing.T) {
	h := newHarness(t)
	h.mustMove(t, move("Supplier", "1", "Site", "1", "10"))

	_, err := h.coordinator.RecordMovement(context.Background(), move("Site", "2", "Site", "1", "1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "a source with no record has zero stock")

	h.mustMove(t, move("Site", "1", "Warehouse", "1", "10"))
	assert.Equal(t, 0.0, h.stockAt(t, "Site", "1"), "draining to exactly zero is allowed")

	_, err = h.coordinator.RecordMovement(context.Background(), move("Site", "1", "Warehouse", "1", "0.0001"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0.0, h.stockAt(t, "Site", "1"))
}

func TestRecordMovement_AtomicWhenCreditFails(t *testing.T) {
	h := newHarness(t)
	h.mustMove(t, move("Supplier", "1", "Warehouse", "1", "500"))

	failing := NewMovementCoordinator(
		failingCreditUoW{inner: h.uow, err: fmt.Errorf("credit inventory: %w", domain.ErrStoreWriteFailure)},
		h.metrics, logging.Discard())

	_, err := failing.RecordMovement(context.Background(), move("Warehouse", "1", "Site", "1", "200"))

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeStoreWriteFailure, appErr.Code)
	assert.Equal(t, "Failed to add fuel transaction", appErr.Message)

	assert.Equal(t, 500.0, h.stockAt(t, "Warehouse", "1"), "source debit rolled back")
	assert.Equal(t, 0.0, h.stockAt(t, "Site", "1"))
	assert.Equal(t, 1, h.movementCount(t), "movement insert rolled back")
}

func TestRecordMovement_StoreUnavailable(t *testing.T) {
	h := newHarness(t)
	failing := NewMovementCoordinator(
		failingCreditUoW{inner: h.uow, err: fmt.Errorf("credit inventory: %w", domain.ErrStoreUnavailable)},
		nil, logging.Discard())

	_, err := failing.RecordMovement(context.Background(), move("Supplier", "1", "Site", "1", "1"))
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeServiceUnavailable, appErr.Code)
	assert.True(t, appErr.IsRetryable())
}

func TestRecordMovement_CancelledContextIsTimeout(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.coordinator.RecordMovement(ctx, move("Supplier", "1", "Site", "1", "1"))
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeTimeout, appErr.Code)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, h.movementCount(t))
}

func TestRecordMovement_LinkedPriceSetsTotalCost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	price, err := h.tracker.RecordPrice(ctx, RecordPriceCommand{FuelTypeID: "1", Price: "2.5", EffectiveDate: "2024-05-01"})
	require.NoError(t, err)

	cmd := move("Supplier", "1", "Warehouse", "1", "100")
	cmd.FuelPriceID = Number(fmt.Sprint(price.FuelPriceID))
	cmd.TransportationCost = "10"
	cmd.LoadingUnloadingCost = "5.5"
	h.mustMove(t, cmd)

	h.mustMove(t, move("Supplier", "1", "Warehouse", "1", "1"))

	rows, err := h.queries.Movements(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var linked, unlinked MovementDTO
	for _, r := range rows {
		if r.FuelPricePerUnit != nil {
			linked = r
		} else {
			unlinked = r
		}
	}
	require.NotNil(t, linked.TotalCost)
	assert.Equal(t, 265.5, *linked.TotalCost)
	assert.Equal(t, 2.5, *linked.FuelPricePerUnit)
	assert.Equal(t, "Max Energy", linked.SourceLocationName)
	assert.Nil(t, unlinked.TotalCost, "no linked price leaves the total unset")
}

func TestRecordMovement_UnknownPriceIsValidationError(t *testing.T) {
	h := newHarness(t)

	cmd := move("Supplier", "1", "Warehouse", "1", "100")
	cmd.FuelPriceID = "999"
	_, err := h.coordinator.RecordMovement(context.Background(), cmd)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Equal(t, "does not exist", appErr.Details["fuelPriceID"])
	assert.Equal(t, 0, h.movementCount(t))
	assert.Equal(t, 0.0, h.stockAt(t, "Warehouse", "1"))
}

func TestRecordMovement_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		mutate func(*RecordMovementCommand)
		field  string
	}{
		{"missing type", func(c *RecordMovementCommand) { c.TransactionType = "" }, "transactionType"},
		{"unknown source kind", func(c *RecordMovementCommand) { c.SourceLocationType = "Depot" }, "sourceLocationType"},
		{"supplier destination", func(c *RecordMovementCommand) { c.DestinationLocationType = "Supplier" }, "destinationLocationType"},
		{"zero source id", func(c *RecordMovementCommand) { c.SourceLocationID = "0" }, "sourceLocationID"},
		{"fractional fuel type", func(c *RecordMovementCommand) { c.FuelTypeID = "1.5" }, "fuelTypeID"},
		{"zero quantity", func(c *RecordMovementCommand) { c.Quantity = "0" }, "quantity"},
		{"negative quantity", func(c *RecordMovementCommand) { c.Quantity = "-5" }, "quantity"},
		{"text quantity", func(c *RecordMovementCommand) { c.Quantity = "lots" }, "quantity"},
		{"bad date", func(c *RecordMovementCommand) { c.TransactionDate = "2024-05-01" }, "transactionDate"},
		{"negative cost", func(c *RecordMovementCommand) { c.OtherCost = "-1" }, "otherCost"},
		{"zero price id", func(c *RecordMovementCommand) { c.FuelPriceID = "0" }, "fuelPriceID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := move("Warehouse", "1", "Site", "1", "10")
			tt.mutate(&cmd)

			_, err := h.coordinator.RecordMovement(context.Background(), cmd)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}

	assert.Equal(t, 0, h.movementCount(t))
}

func TestRecordMovement_AcceptsFractionalSeconds(t *testing.T) {
	h := newHarness(t)

	cmd := move("Supplier", "1", "Site", "1", "5")
	cmd.TransactionDate = "2024-05-01T08:00:00.123+06:30"
	h.mustMove(t, cmd)

	rows, err := h.queries.Movements(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-05-01T01:30:00.123Z", rows[0].TransactionDate.Format("2006-01-02T15:04:05.000Z07:00"))
}
