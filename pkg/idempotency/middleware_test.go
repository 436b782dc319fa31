package idempotency

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := NewGormStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

type harness struct {
	router  *gin.Engine
	calls   atomic.Int32
	status  int
	metrics *Metrics
}

func newHarness(t *testing.T, store Store) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{status: http.StatusCreated}
	h.metrics = NewMetrics(prometheus.NewRegistry())

	opts := DefaultOptions("fuel-test", store)
	opts.Metrics = h.metrics

	h.router = gin.New()
	h.router.Use(Middleware(opts))
	h.router.POST("/api/fuelinventory/movements", func(c *gin.Context) {
		n := h.calls.Add(1)
		c.JSON(h.status, gin.H{"usageTransitionID": "TRANS-" + string(rune('0'+n))})
	})
	return h
}

func (h *harness) post(key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/fuelinventory/movements", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_NoKeyProceeds(t *testing.T) {
	h := newHarness(t, newTestStore(t))

	assert.Equal(t, http.StatusCreated, h.post("", `{"quantity":"1"}`).Code)
	assert.Equal(t, http.StatusCreated, h.post("", `{"quantity":"1"}`).Code)
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestMiddleware_ReplaysCompletedRequest(t *testing.T) {
	h := newHarness(t, newTestStore(t))

	first := h.post("move-1", `{"quantity":"1"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := h.post("move-1", `{"quantity":"1"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
	assert.Equal(t, int32(1), h.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Requests.WithLabelValues("fuel-test", "/api/fuelinventory/movements", OutcomeReplayed)))
}

func TestMiddleware_RejectsParameterMismatch(t *testing.T) {
	h := newHarness(t, newTestStore(t))

	require.Equal(t, http.StatusCreated, h.post("move-2", `{"quantity":"1"}`).Code)

	w := h.post("move-2", `{"quantity":"2"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), CodeParameterMismatch)
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestMiddleware_RejectsConcurrentRequest(t *testing.T) {
	store := newTestStore(t)
	h := newHarness(t, store)

	now := time.Now().UTC()
	_, inserted, err := store.Claim(context.Background(), &Record{
		Service:     "fuel-test",
		Key:         "move-3",
		Method:      http.MethodPost,
		Path:        "/api/fuelinventory/movements",
		Fingerprint: Fingerprint(http.MethodPost, "/api/fuelinventory/movements", []byte(`{"quantity":"1"}`)),
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.True(t, inserted)

	w := h.post("move-3", `{"quantity":"1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, h.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Requests.WithLabelValues("fuel-test", "/api/fuelinventory/movements", OutcomeInFlight)))
}

func TestMiddleware_ReleasesKeyOnServerError(t *testing.T) {
	store := newTestStore(t)
	h := newHarness(t, store)
	h.status = http.StatusServiceUnavailable

	assert.Equal(t, http.StatusServiceUnavailable, h.post("move-4", `{"quantity":"1"}`).Code)

	_, err := store.Find(context.Background(), "fuel-test", "move-4")
	assert.ErrorIs(t, err, ErrNotFound)

	h.status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, h.post("move-4", `{"quantity":"1"}`).Code)
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestMiddleware_StoresClientErrors(t *testing.T) {
	h := newHarness(t, newTestStore(t))
	h.status = http.StatusBadRequest

	require.Equal(t, http.StatusBadRequest, h.post("move-5", `{"quantity":"999"}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.post("move-5", `{"quantity":"999"}`).Code)
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestMiddleware_InvalidKey(t *testing.T) {
	h := newHarness(t, newTestStore(t))

	w := h.post("not a valid key!", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeKeyInvalid)
}

type failingStore struct {
	Store
}

func (failingStore) Claim(context.Context, *Record) (*Record, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestMiddleware_StorageFailure(t *testing.T) {
	h := newHarness(t, failingStore{})

	w := h.post("move-6", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), CodeStorageFailure)
}

func TestGormStore_Purge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, expires := range []time.Time{now.Add(-time.Hour), now.Add(time.Hour)} {
		_, _, err := store.Claim(ctx, &Record{
			Service:     "fuel-test",
			Key:         []string{"expired", "live"}[i],
			Method:      http.MethodPost,
			Path:        "/p",
			Fingerprint: "f",
			CreatedAt:   now,
			ExpiresAt:   expires,
		})
		require.NoError(t, err)
	}

	deleted, err := store.Purge(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.Find(ctx, "fuel-test", "live")
	assert.NoError(t, err)
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("9b2f6c1e-4a57-4d1b-9f0e-1c2d3e4f5a6b", 255))
	assert.NoError(t, ValidateKey("  padded_key  ", 255))
	assert.ErrorIs(t, ValidateKey(" ", 255), ErrKeyMissing)
	assert.ErrorIs(t, ValidateKey("has space", 255), ErrKeyInvalid)
	assert.ErrorIs(t, ValidateKey("abcdef", 3), ErrKeyTooLong)

	assert.NotEqual(t,
		Fingerprint(http.MethodPost, "/a", []byte(`{}`)),
		Fingerprint(http.MethodPost, "/b", []byte(`{}`)))
	assert.NotEqual(t,
		Fingerprint(http.MethodPost, "/a", []byte(`b`)),
		Fingerprint(http.MethodPost, "/ab", nil))
}

func TestMiddleware_GetPassesThrough(t *testing.T) {
	h := newHarness(t, failingStore{})
	h.router.GET("/api/fuelinventory", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/fuelinventory", nil)
	req.Header.Set(HeaderKey, "read-1")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecord_HeldSince(t *testing.T) {
	now := time.Now().UTC()
	locked := now.Add(-time.Minute)

	held, ok := (&Record{LockedAt: &locked}).HeldSince(now)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, held)

	_, ok = (&Record{LockedAt: &locked, CompletedAt: &now}).HeldSince(now)
	assert.False(t, ok)
}
