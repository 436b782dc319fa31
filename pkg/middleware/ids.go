package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KMK-tech-v0/fuel/pkg/logging"
)

// Keys set on the gin context
const (
	ContextKeyRequestID     = "requestId"
	ContextKeyCorrelationID = "correlationId"
	ContextKeyTraceID       = "traceId"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// propagateID echoes header back to the client, minting a UUID when the caller sent none
func propagateID(header, key string, attach func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(key, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(attach(c.Request.Context(), id))
		c.Next()
	}
}

// RequestID identifies this hop
func RequestID() gin.HandlerFunc {
	return propagateID(HeaderRequestID, ContextKeyRequestID, logging.ContextWithRequestID)
}

// CorrelationID ties together every hop of one client operation
func CorrelationID() gin.HandlerFunc {
	return propagateID(HeaderCorrelationID, ContextKeyCorrelationID, logging.ContextWithCorrelationID)
}

func GetRequestID(c *gin.Context) string     { return c.GetString(ContextKeyRequestID) }
func GetCorrelationID(c *gin.Context) string { return c.GetString(ContextKeyCorrelationID) }
func GetTraceID(c *gin.Context) string       { return c.GetString(ContextKeyTraceID) }
