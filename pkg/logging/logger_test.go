package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:       level,
		ServiceName: "fuel-test",
		Environment: "test",
		Version:     "0.0.0",
		Output:      buf,
	})
	return logger, buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestLogger_BaseAttributes(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.WithComponent("ledger").WithError(errors.New("boom")).Info("applied delta")

	entry := decodeLine(t, buf)
	assert.Equal(t, "fuel-test", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "ledger", entry["component"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_Audit(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)
	ctx := ContextWithRequestID(context.Background(), "req-1")

	logger.Audit(ctx, "record_movement", "fuel_transaction", "TRANS-1", map[string]any{"quantity": "10"})

	entry := decodeLine(t, buf)
	assert.Equal(t, "Audit event", entry["msg"])
	assert.Equal(t, "record_movement", entry["auditAction"])
	assert.Equal(t, "TRANS-1", entry["resourceId"])
	assert.Equal(t, "req-1", entry["requestId"])
}

func TestLogger_DatabaseQueryLevel(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.DatabaseQuery(context.Background(), "fuel_inventory", "update", time.Millisecond, true, 1)
	assert.Empty(t, buf.String(), "successful queries log at debug")

	logger.DatabaseQuery(context.Background(), "fuel_inventory", "update", time.Millisecond, false, 0)
	entry := decodeLine(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "fuel_inventory", entry["table"])
}

func TestLogger_WithContextSkipsMissingIDs(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)
	ctx := ContextWithTraceID(ContextWithCorrelationID(context.Background(), "corr-7"), "")

	logger.WithContext(ctx).Performance(ctx, "reconcile", 12*time.Millisecond, true, map[string]any{"keys": 3})

	entry := decodeLine(t, buf)
	assert.Equal(t, "corr-7", entry["correlationId"])
	assert.NotContains(t, entry, "traceId")
	assert.EqualValues(t, 12, entry["durationMs"])
	assert.EqualValues(t, 3, entry["keys"])
}
