package app

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"icetime-service/internal/logging"
	"icetime-service/internal/metrics"
)

const headerRequestID = "X-Request-ID"

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

type requestIDKey struct{}

// RequestIDFromContext extracts the request ID stored by RequestLogger.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(requestIDKey{}).(string); ok {
		return val
	}
	return ""
}

// RequestLogger tags each request with an id, stores a request-scoped
// logger on its context and logs and records the outcome.
func RequestLogger(baseLogger *slog.Logger, recorder *metrics.Recorder) gin.HandlerFunc {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		reqID := sanitizeRequestID(c.GetHeader(headerRequestID))
		c.Header(headerRequestID, reqID)

		logger := baseLogger.With(
			slog.String(logging.FieldRequestID, reqID),
			slog.String(logging.FieldMethod, c.Request.Method),
			slog.String(logging.FieldPath, c.Request.URL.Path),
			slog.String("client_ip", c.ClientIP()),
		)
		ctx := logging.WithLogger(c.Request.Context(), logger)
		ctx = context.WithValue(ctx, requestIDKey{}, reqID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.RecordHTTPRequest(c.Request.Method, route, status, duration)

		logger.Info("request complete",
			slog.Int(logging.FieldStatusCode, status),
			slog.Int64(logging.FieldDurationMS, duration.Milliseconds()),
		)
	}
}

func sanitizeRequestID(incoming string) string {
	if incoming != "" && requestIDPattern.MatchString(incoming) {
		return incoming
	}
	return uuid.New().String()
}
