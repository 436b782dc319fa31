package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	apperrors "github.com/KMK-tech-v0/fuel/pkg/errors"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	var body struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.50, "b": " 7 ", "c": null}`), &body))

	assert.Equal(t, Number("12.50"), body.A)
	assert.Equal(t, Number("7"), body.B)
	assert.Empty(t, body.C)
	assert.Empty(t, body.D)

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &body))
}

func TestGetStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	dto, err := h.stock.GetStock(ctx, GetStockQuery{FuelTypeID: "2", LocationType: "Site", LocationID: "1"})
	require.NoError(t, err)
	assert.Equal(t, &StockDTO{FuelTypeID: 2, LocationType: "Site", LocationID: 1, CurrentStock: 0}, dto)

	h.mustMove(t, move("Supplier", "1", "Site", "1", "42.5"))
	assert.Equal(t, 42.5, h.stockAt(t, "Site", "1"))

	_, err = h.stock.GetStock(ctx, GetStockQuery{FuelTypeID: "1", LocationType: "Supplier", LocationID: "1"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Contains(t, appErr.Details, "locationType")
}

func TestApplyDelta_AccumulatesIntoOneRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	key, err := domain.NewInventoryKey(1, domain.LocationWarehouse, 2)
	require.NoError(t, err)

	for _, delta := range []string{"10", "5.25", "-3"} {
		err := h.uow.Do(ctx, "apply_delta", func(tx domain.Tx) error {
			return NewInventoryLedger(tx.Inventory()).ApplyDelta(ctx, key, mustDecimal(t, delta))
		})
		require.NoError(t, err)
	}

	err = h.uow.Do(ctx, "apply_delta", func(tx domain.Tx) error {
		return NewInventoryLedger(tx.Inventory()).ApplyDelta(ctx, key, mustDecimal(t, "-100"))
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	rows, err := h.queries.InventorySnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 12.25, rows[0].CurrentStock)
	assert.Equal(t, "North Depot", rows[0].LocationName)
	assert.Equal(t, "Diesel", rows[0].FuelTypeName)

	supplierKey := domain.InventoryKey{FuelTypeID: 1, Location: domain.Location{Kind: domain.LocationSupplier, ID: 1}}
	err = h.uow.Do(ctx, "apply_delta", func(tx domain.Tx) error {
		return NewInventoryLedger(tx.Inventory()).ApplyDelta(ctx, supplierKey, mustDecimal(t, "1"))
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLocationKind)
}

func TestQueryService_ResolvesNames(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.mustMove(t, move("Supplier", "1", "Warehouse", "1", "500"))
	h.mustMove(t, move("Warehouse", "1", "Site", "2", "120"))

	movements, err := h.queries.Movements(ctx)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.NotEqual(t, "N/A", m.SourceLocationName)
		assert.Nil(t, m.FuelPricePerUnit)
		assert.Nil(t, m.TotalCost)
	}

	snapshot, err := h.queries.InventorySnapshot(ctx)
	require.NoError(t, err)
	names := map[string]float64{}
	for _, row := range snapshot {
		names[row.LocationName] = row.CurrentStock
	}
	assert.Equal(t, map[string]float64{"Central Depot": 380, "Tower B": 120}, names)

	fuelTypes, err := h.queries.FuelTypes(ctx)
	require.NoError(t, err)
	require.Len(t, fuelTypes, 2)
	assert.Equal(t, "Diesel", fuelTypes[0].FuelTypeName)

	suppliers, err := h.queries.Suppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, suppliers, 1)

	townships, err := h.queries.Townships(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hlaing", townships[0].TownshipName)

	sites, err := h.queries.Sites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	require.NotNil(t, sites[0].TownshipID)
	assert.Equal(t, int64(1), *sites[0].TownshipID)

	warehouses, err := h.queries.Warehouses(ctx)
	require.NoError(t, err)
	assert.Len(t, warehouses, 2)
}

type brokenReads struct{}

func (brokenReads) InventoryRecords(context.Context) ([]domain.InventoryRecord, error) {
	return nil, errors.Join(domain.ErrStoreUnavailable, errors.New("dial tcp: connection refused"))
}

func (brokenReads) StockFlows(context.Context) ([]domain.StockFlow, error) { return nil, nil }

func TestReconciler(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.mustMove(t, move("Supplier", "1", "Warehouse", "1", "300"))
	h.mustMove(t, move("Warehouse", "1", "Site", "1", "75.5"))

	report, err := h.reconciler.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 2, report.KeysChecked)
	assert.Empty(t, report.Discrepancies)

	// Out-of-band edits bypass the ledger
	require.NoError(t, h.db.Exec(
		"UPDATE fuel_inventory SET current_stock = 999 WHERE location_type = ? AND location_id = ?", "Site", 1).Error)
	require.NoError(t, h.db.Exec(
		"DELETE FROM fuel_inventory WHERE location_type = ? AND location_id = ?", "Warehouse", 1).Error)

	report, err = h.reconciler.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	require.Len(t, report.Discrepancies, 2)

	byLocation := map[string]DiscrepancyDTO{}
	for _, d := range report.Discrepancies {
		byLocation[d.LocationType] = d
	}
	assert.Equal(t, 999.0, byLocation["Site"].Recorded)
	assert.Equal(t, 75.5, byLocation["Site"].Expected)
	assert.False(t, byLocation["Site"].Missing)
	assert.True(t, byLocation["Warehouse"].Missing)
	assert.Equal(t, 224.5, byLocation["Warehouse"].Expected)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.InventoryDiscrepancies))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.ReconciliationRuns.WithLabelValues("fuel-test", "success")))

	failing := NewReconciler(brokenReads{}, h.metrics, logging.Discard())
	_, err = failing.Reconcile(ctx)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeServiceUnavailable, appErr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ReconciliationRuns.WithLabelValues("fuel-test", "error")))
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
