package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockFlow is the net of all movements touching one key
type StockFlow struct {
	Key     InventoryKey
	Credits decimal.Decimal
	Debits  decimal.Decimal
}

// Expected is the stock the movement history implies
func (f StockFlow) Expected() decimal.Decimal {
	return f.Credits.Sub(f.Debits)
}

// Discrepancy is a key whose stored stock disagrees with its movement history
type Discrepancy struct {
	Key      InventoryKey
	Recorded decimal.Decimal
	Expected decimal.Decimal
	Missing  bool
}

// ReconciliationReport is the outcome of one conservation check
type ReconciliationReport struct {
	CheckedAt     time.Time
	KeysChecked   int
	Discrepancies []Discrepancy
}

// Consistent reports whether every key balanced
func (r *ReconciliationReport) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// Reconcile compares recorded stock against the flows. Keys with flows but no record are flagged missing.
func Reconcile(records []InventoryRecord, flows []StockFlow, now time.Time) *ReconciliationReport {
	byKey := make(map[InventoryKey]StockFlow, len(flows))
	for _, f := range flows {
		existing, ok := byKey[f.Key]
		if ok {
			f.Credits = f.Credits.Add(existing.Credits)
			f.Debits = f.Debits.Add(existing.Debits)
		}
		byKey[f.Key] = f
	}

	report := &ReconciliationReport{CheckedAt: now, Discrepancies: []Discrepancy{}}
	seen := make(map[InventoryKey]bool, len(records))
	for _, rec := range records {
		seen[rec.Key] = true
		report.KeysChecked++

		expected := decimal.Zero
		if f, ok := byKey[rec.Key]; ok {
			expected = f.Expected()
		}
		if !expected.Equal(rec.CurrentStock) {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Key:      rec.Key,
				Recorded: rec.CurrentStock,
				Expected: expected,
			})
		}
	}

	for _, f := range flows {
		if seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		report.KeysChecked++
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			Key:      f.Key,
			Recorded: decimal.Zero,
			Expected: byKey[f.Key].Expected(),
			Missing:  true,
		})
	}
	return report
}
