package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/KMK-tech-v0/fuel/pkg/errors"
)

// APIErrorResponse is the body of every non-2xx response
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

func envelope(c *gin.Context, code, message string, details map[string]string) APIErrorResponse {
	return APIErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

func envelopeFor(c *gin.Context, appErr *apperrors.AppError) APIErrorResponse {
	return envelope(c, appErr.Code, appErr.Message, appErr.Details)
}

// AbortWithAppError stops the chain and writes appErr
func AbortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, envelopeFor(c, appErr))
}

// ErrorHandler renders the last error attached with c.Error when the handler wrote nothing
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		NewErrorResponder(c, logger).RespondWithError(c.Errors.Last().Err)
	}
}

// ErrorResponder writes error envelopes for a single request and logs them
type ErrorResponder struct {
	c      *gin.Context
	logger *slog.Logger
}

func NewErrorResponder(c *gin.Context, logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{c: c, logger: logger}
}

// RespondWithError classifies err first
func (r *ErrorResponder) RespondWithError(err error) {
	r.RespondWithAppError(apperrors.MapDomainError(err))
}

func (r *ErrorResponder) RespondBadRequest(message string) {
	r.RespondWithAppError(apperrors.ErrBadRequest(message))
}

func (r *ErrorResponder) RespondWithAppError(appErr *apperrors.AppError) {
	level := slog.LevelWarn
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs := []any{
		"code", appErr.Code,
		"status", appErr.HTTPStatus,
		"method", r.c.Request.Method,
		"path", r.c.Request.URL.Path,
		"requestId", GetRequestID(r.c),
	}
	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}
	if len(appErr.Details) > 0 {
		attrs = append(attrs, "details", appErr.Details)
	}
	r.logger.Log(r.c.Request.Context(), level, appErr.Message, attrs...)

	r.c.JSON(appErr.HTTPStatus, envelopeFor(r.c, appErr))
}

// NoRoute answers unknown paths with ROUTE_NOT_FOUND
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope(c, "ROUTE_NOT_FOUND", "The requested resource was not found", nil))
	}
}

// NoMethod answers a known path with an unsupported method
func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, envelope(c, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource", nil))
	}
}
