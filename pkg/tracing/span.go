package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Within runs fn inside a span named name. A non-nil error marks the span failed.
func Within(ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)
	Finish(span, err)
	return err
}

// Finish sets the span status from err without ending it
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// StatementAttributes describes one SQL statement against a fuel table
func StatementAttributes(system, operation, table string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.DBSystemKey.String(system),
		semconv.DBOperationKey.String(operation),
	}
	if table != "" {
		attrs = append(attrs, semconv.DBSQLTableKey.String(table))
	}
	return attrs
}

// TraceID returns the active trace ID or ""
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
