package application

import (
	"context"
	"time"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
)

// Reconciler checks every inventory record against its movement history
type Reconciler struct {
	source  domain.ReconciliationSource
	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewReconciler creates a Reconciler. m may be nil.
func NewReconciler(source domain.ReconciliationSource, m *metrics.Metrics, logger *logging.Logger) *Reconciler {
	return &Reconciler{
		source:  source,
		metrics: m,
		logger:  logger.WithComponent("reconciler"),
		now:     time.Now,
	}
}

// Reconcile reports keys whose stock differs from credits minus debits.
// Records and flows are read separately, so movements committed in between
// can surface as transient discrepancies.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconciliationDTO, error) {
	start := r.now()
	logger := r.logger.WithContext(ctx)

	records, err := r.source.InventoryRecords(ctx)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	flows, err := r.source.StockFlows(ctx)
	if err != nil {
		return nil, r.fail(ctx, err)
	}

	report := domain.Reconcile(records, flows, start.UTC())
	for _, d := range report.Discrepancies {
		logger.Warn("Inventory discrepancy",
			"key", d.Key.String(),
			"recorded", d.Recorded.String(),
			"expected", d.Expected.String(),
			"missingRecord", d.Missing,
		)
	}

	if r.metrics != nil {
		r.metrics.RecordReconciliation(true, len(report.Discrepancies))
	}
	r.logger.Performance(ctx, "reconcile", time.Since(start), report.Consistent(), map[string]any{
		"keysChecked":   report.KeysChecked,
		"discrepancies": len(report.Discrepancies),
	})
	return ToReconciliationDTO(report), nil
}

func (r *Reconciler) fail(ctx context.Context, err error) error {
	if r.metrics != nil {
		r.metrics.RecordReconciliation(false, 0)
	}
	appErr := toAppError(err, "reconcile", "Failed to reconcile inventory")
	logFailure(r.logger.WithContext(ctx), appErr, "Reconciliation failed")
	return appErr
}
