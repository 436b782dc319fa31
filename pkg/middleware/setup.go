// Package middleware holds the gin chain shared by the fuel HTTP surfaces.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/KMK-tech-v0/fuel/pkg/errors"
)

// Config holds middleware configuration
type Config struct {
	ServiceName    string
	Logger         *slog.Logger
	RequestTimeout time.Duration
	EnableCORS     bool
	TrustedProxies []string
	// QuietPaths are left out of the access log
	QuietPaths []string
}

// DefaultConfig enables CORS and bounds requests to 30s
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		ServiceName:    serviceName,
		Logger:         logger,
		RequestTimeout: 30 * time.Second,
		EnableCORS:     true,
		QuietPaths:     []string{"/health", "/ready", "/metrics"},
	}
}

// Setup installs, in order: panic recovery, request and correlation IDs,
// access log, CORS, request deadline, content type check, error rendering.
func Setup(router *gin.Engine, config *Config) {
	InitValidator()
	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	chain := []gin.HandlerFunc{
		Recover(config.Logger),
		RequestID(),
		CorrelationID(),
		AccessLog(config.Logger, config.QuietPaths...),
	}
	if config.EnableCORS {
		chain = append(chain, CORS())
	}
	if config.RequestTimeout > 0 {
		chain = append(chain, Timeout(config.RequestTimeout))
	}
	chain = append(chain, ContentType(), ErrorHandler(config.Logger))
	router.Use(chain...)
}

// CORS allows any origin to call the read and write endpoints
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Idempotency-Key, X-Request-ID, X-Correlation-ID")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-Correlation-ID, Idempotency-Replayed")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Timeout puts a deadline on the request context. Units of work roll back once it passes.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !c.Writer.Written() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			AbortWithAppError(c, apperrors.ErrTimeout(c.FullPath()))
		}
	}
}

// HealthCheck is the liveness probe
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	}
}

// ReadinessCheck answers 503 while check fails
func ReadinessCheck(serviceName string, check func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "service": serviceName, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
	}
}
