package application

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/KMK-tech-v0/fuel/pkg/errors"
)

func TestRecordPrice_FluctuationSequence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	steps := []struct {
		date     string
		price    Number
		kind     string
		previous *float64
		amount   *float64
	}{
		{"2024-01-01", "100", "Baseline", nil, nil},
		{"2024-01-02", "120", "Increase", ptr(100), ptr(20)},
		{"2024-01-03", "120", "No Change", ptr(120), ptr(0)},
		{"2024-01-04", "90", "Decrease", ptr(120), ptr(-30)},
	}

	for _, step := range steps {
		result, err := h.tracker.RecordPrice(ctx, RecordPriceCommand{FuelTypeID: "1", Price: step.price, EffectiveDate: step.date})
		require.NoError(t, err, step.date)
		assert.Equal(t, "Fuel price added and fluctuation recorded successfully", result.Message)
		assert.Equal(t, step.kind, result.FluctuationType, step.date)
		assert.Equal(t, step.previous, result.PreviousPrice, step.date)
		assert.Equal(t, step.amount, result.FluctuationAmount, step.date)
		assert.NotZero(t, result.FuelPriceID)
	}

	rows, err := h.queries.PriceFluctuations(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "2024-01-04", rows[0].FluctuationDate, "newest first")
	assert.Equal(t, "Decrease", rows[0].FluctuationType)
	assert.Equal(t, "Diesel", rows[0].FuelTypeName)
	assert.Equal(t, "Baseline", rows[3].FluctuationType)
	assert.Nil(t, rows[3].PreviousPrice)
	assert.Nil(t, rows[3].FluctuationAmount)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.FluctuationsRecorded.WithLabelValues("fuel-test", "No Change")))
}

func TestRecordPrice_PreviousIsStrictlyEarlier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	record := func(date string, price Number) *PriceResultDTO {
		result, err := h.tracker.RecordPrice(ctx, RecordPriceCommand{FuelTypeID: "1", Price: price, EffectiveDate: date})
		require.NoError(t, err)
		return result
	}

	record("2024-03-10", "100")
	sameDay := record("2024-03-10", "110")
	assert.Equal(t, "Baseline", sameDay.FluctuationType, "a same-day entry is not a predecessor")

	backdated := record("2024-03-01", "80")
	assert.Equal(t, "Baseline", backdated.FluctuationType)

	later := record("2024-03-11", "105")
	assert.Equal(t, "Decrease", later.FluctuationType, "compares against the highest id on the latest earlier date")
	assert.Equal(t, ptr(110), later.PreviousPrice)

	other, err := h.tracker.RecordPrice(ctx, RecordPriceCommand{FuelTypeID: "2", Price: "50", EffectiveDate: "2024-03-12"})
	require.NoError(t, err)
	assert.Equal(t, "Baseline", other.FluctuationType, "history is per fuel type")
}

func TestRecordPrice_CustomNotesAndReferences(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.tracker.RecordPrice(ctx, RecordPriceCommand{
		FuelTypeID: "1", Price: "3.10", EffectiveDate: "2024-06-01",
		SupplierID: "1", TownshipID: "1", SiteID: "2", Notes: "monsoon surcharge",
	})
	require.NoError(t, err)

	rows, err := h.queries.PriceFluctuations(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "monsoon surcharge", rows[0].Notes)
	assert.Equal(t, 3.1, rows[0].CurrentPrice)
}

func TestRecordPrice_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		cmd   RecordPriceCommand
		field string
	}{
		{"unknown fuel type", RecordPriceCommand{FuelTypeID: "77", Price: "1", EffectiveDate: "2024-01-01"}, "fuelTypeID"},
		{"negative price", RecordPriceCommand{FuelTypeID: "1", Price: "-1", EffectiveDate: "2024-01-01"}, "price"},
		{"missing price", RecordPriceCommand{FuelTypeID: "1", EffectiveDate: "2024-01-01"}, "price"},
		{"timestamp date", RecordPriceCommand{FuelTypeID: "1", Price: "1", EffectiveDate: "2024-01-01T00:00:00Z"}, "effectiveDate"},
		{"zero supplier", RecordPriceCommand{FuelTypeID: "1", Price: "1", EffectiveDate: "2024-01-01", SupplierID: "0"}, "supplierID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.tracker.RecordPrice(ctx, tt.cmd)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}

	_, err := h.tracker.RecordPrice(ctx, RecordPriceCommand{FuelTypeID: "1", Price: "1", EffectiveDate: "2024-01-01", SupplierID: "404"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code, "foreign key violations are client errors")

	rows, err := h.queries.PriceFluctuations(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRecordPrice_ZeroPriceIsAllowed(t *testing.T) {
	h := newHarness(t)

	result, err := h.tracker.RecordPrice(context.Background(), RecordPriceCommand{FuelTypeID: "1", Price: "0", EffectiveDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "Baseline", result.FluctuationType)
}

func ptr(f float64) *float64 { return &f }
