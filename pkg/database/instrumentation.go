package database

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
	"github.com/KMK-tech-v0/fuel/pkg/tracing"
)

const (
	instrumentationName = "fuel:instrumentation"
	startedAtKey        = "fuel:started_at"
	spanKey             = "fuel:span"
)

// Instrumentation is a gorm plugin that records one span, one metric sample and
// one debug log line per statement.
type Instrumentation struct {
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentation creates the plugin. m may be nil.
func NewInstrumentation(m *metrics.Metrics, logger *logging.Logger) *Instrumentation {
	return &Instrumentation{
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("gorm"),
	}
}

// Name implements gorm.Plugin
func (i *Instrumentation) Name() string {
	return instrumentationName
}

// Initialize implements gorm.Plugin
func (i *Instrumentation) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	hooks := []struct {
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"insert", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		if err := h.before(instrumentationName+":before_"+h.operation, i.before(h.operation)); err != nil {
			return err
		}
		if err := h.after(instrumentationName+":after_"+h.operation, i.after(h.operation)); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instrumentation) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		db.InstanceSet(startedAtKey, time.Now())

		ctx := db.Statement.Context
		ctx, span := i.tracer.Start(ctx, "db."+operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(tracing.StatementAttributes(db.Dialector.Name(), operation, db.Statement.Table)...),
		)
		db.Statement.Context = ctx
		db.InstanceSet(spanKey, span)
	}
}

func (i *Instrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		success := db.Error == nil || errors.Is(db.Error, gorm.ErrRecordNotFound)

		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		var duration time.Duration
		if v, ok := db.InstanceGet(startedAtKey); ok {
			if started, ok := v.(time.Time); ok {
				duration = time.Since(started)
			}
		}

		if v, ok := db.InstanceGet(spanKey); ok {
			if span, ok := v.(trace.Span); ok {
				if success {
					tracing.Finish(span, nil)
				} else {
					tracing.Finish(span, db.Error)
				}
				span.End()
			}
		}

		if i.metrics != nil {
			i.metrics.RecordDBOperation(table, operation, success, duration)
		}
		if i.logger != nil {
			i.logger.DatabaseQuery(db.Statement.Context, table, operation, duration, success, db.Statement.RowsAffected)
		}
	}
}
