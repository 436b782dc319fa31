package logging

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	correlationIDKey
	traceIDKey
)

var contextFields = []struct {
	key  contextKey
	name string
}{
	{requestIDKey, "requestId"},
	{correlationIDKey, "correlationId"},
	{traceIDKey, "traceId"},
}

func contextAttrs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var args []any
	for _, f := range contextFields {
		if v, ok := ctx.Value(f.key).(string); ok && v != "" {
			args = append(args, f.name, v)
		}
	}
	return args
}

// ContextWithRequestID stores the request ID for WithContext
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores the correlation ID for WithContext
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithTraceID stores the trace ID for WithContext
func ContextWithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}
