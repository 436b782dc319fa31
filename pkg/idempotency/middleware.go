package idempotency

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/KMK-tech-v0/fuel/pkg/errors"
	"github.com/KMK-tech-v0/fuel/pkg/middleware"
)

// Error codes returned by the middleware
const (
	CodeKeyRequired       = "IDEMPOTENCY_KEY_REQUIRED"
	CodeKeyInvalid        = "IDEMPOTENCY_KEY_INVALID"
	CodeParameterMismatch = "IDEMPOTENCY_PARAMETER_MISMATCH"
	CodeConcurrentRequest = "IDEMPOTENCY_CONCURRENT_REQUEST"
	CodeStorageFailure    = "IDEMPOTENCY_STORAGE_UNAVAILABLE"
)

// replayedHeaders are copied from the first response. Request and trace IDs are not.
var replayedHeaders = []string{"Content-Type", "Location"}

type capture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware deduplicates POSTs by Idempotency-Key.
//
//	completed key, same body   -> stored response replayed
//	same key, different body   -> 422
//	key held by a live request -> 409
//	handler answered 5xx       -> key released for retry
func Middleware(opts *Options) gin.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(HeaderKey))
		if key == "" {
			if opts.RequireKey {
				abort(c, CodeKeyRequired, "Idempotency-Key header is required for this operation", http.StatusBadRequest)
				return
			}
			c.Next()
			return
		}
		if err := ValidateKey(key, opts.MaxKeyLength); err != nil {
			abort(c, CodeKeyInvalid, fmt.Sprintf("Invalid idempotency key: %v", err), http.StatusBadRequest)
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		r := &keyedRequest{
			opts:     opts,
			key:      key,
			body:     body,
			endpoint: c.FullPath(),
			logger:   logger.With("idempotencyKey", key, "path", c.Request.URL.Path),
		}
		r.serve(c)
	}
}

type keyedRequest struct {
	opts     *Options
	key      string
	body     []byte
	endpoint string
	logger   *slog.Logger
}

func (r *keyedRequest) serve(c *gin.Context) {
	ctx := c.Request.Context()
	started := time.Now()
	service := r.opts.Service
	m := r.opts.Metrics

	stored, inserted, err := r.opts.Store.Claim(ctx, &Record{
		Service:     service,
		Key:         r.key,
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Fingerprint: Fingerprint(c.Request.Method, c.Request.URL.Path, r.body),
		CreatedAt:   started.UTC(),
		ExpiresAt:   started.UTC().Add(r.opts.Retention),
	})
	if err != nil {
		r.logger.Error("Failed to claim idempotency key", "error", err)
		m.storageError(service, "claim")
		abort(c, CodeStorageFailure, "Idempotency storage is temporarily unavailable", http.StatusServiceUnavailable)
		return
	}
	m.claimed(service, r.endpoint, time.Since(started).Seconds())

	if !inserted {
		if stored.Fingerprint != Fingerprint(c.Request.Method, c.Request.URL.Path, r.body) {
			r.logger.Warn("Idempotency key reused with different parameters")
			m.outcome(service, r.endpoint, OutcomeMismatch)
			abort(c, CodeParameterMismatch, "Request parameters differ from original request with this idempotency key", http.StatusUnprocessableEntity)
			return
		}
		if stored.Completed() {
			r.logger.Info("Replaying stored response", "statusCode", stored.ResponseCode)
			m.outcome(service, r.endpoint, OutcomeReplayed)
			replay(c, stored)
			return
		}
		if held, ok := stored.HeldSince(time.Now().UTC()); ok {
			if held < r.opts.LockTimeout {
				m.outcome(service, r.endpoint, OutcomeInFlight)
				abort(c, CodeConcurrentRequest, "A request with this idempotency key is currently being processed", http.StatusConflict)
				return
			}
			r.logger.Info("Taking over stale idempotency key", "heldFor", held)
			if err := r.opts.Store.Reclaim(ctx, stored.ID); err != nil {
				r.logger.Warn("Failed to reclaim idempotency key", "error", err)
			}
		}
	}

	m.outcome(service, r.endpoint, OutcomeExecuted)
	w := &capture{ResponseWriter: c.Writer}
	c.Writer = w
	c.Next()

	// The request deadline may have passed by now
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	r.finish(storeCtx, stored.ID, w)
}

func (r *keyedRequest) finish(ctx context.Context, id uint, w *capture) {
	service := r.opts.Service
	status := w.Status()

	if status >= http.StatusInternalServerError {
		if err := r.opts.Store.Release(ctx, id); err != nil {
			r.logger.Error("Failed to release idempotency key", "error", err)
			r.opts.Metrics.storageError(service, "release")
		}
		return
	}

	body := w.body.Bytes()
	if len(body) > r.opts.MaxResponseSize {
		r.logger.Warn("Response too large to store", "size", len(body), "maxSize", r.opts.MaxResponseSize)
		body = []byte(fmt.Sprintf(`{"error":"Response too large to cache","size":%d}`, len(body)))
	}

	headers := make(map[string]string, len(replayedHeaders))
	for _, name := range replayedHeaders {
		if v := w.Header().Get(name); v != "" {
			headers[name] = v
		}
	}

	if err := r.opts.Store.Complete(ctx, id, Response{Status: status, Body: body, Headers: headers}); err != nil {
		r.logger.Error("Failed to store idempotency response", "error", err)
		r.opts.Metrics.storageError(service, "complete")
	}
}

func replay(c *gin.Context, stored *Record) {
	for k, v := range stored.ResponseHeaders {
		c.Header(k, v)
	}
	c.Header(HeaderReplayed, "true")
	c.Data(stored.ResponseCode, "application/json; charset=utf-8", stored.ResponseBody)
	c.Abort()
}

func abort(c *gin.Context, code, message string, status int) {
	middleware.AbortWithAppError(c, apperrors.NewAppError(code, message, status))
}
