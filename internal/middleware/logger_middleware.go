package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studytrack/backend/internal/metrics"
)

const (
	RequestIDHeader     = "X-Request-ID"
	requestIDContextKey = "requestID"
	loggerContextKey    = "logger"
)

// RequestLogger tags each request with an id, exposes a request-scoped logger
// and writes one log line and one metric sample per request.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(requestIDContextKey, requestID)

		reqLogger := logger.With(
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
		c.Set(loggerContextKey, reqLogger)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		if m != nil {
			m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())
		}

		attrs := []any{
			slog.Int("status", status),
			slog.Duration("latency", latency),
		}
		if userID := UserID(c); userID != "" {
			attrs = append(attrs, slog.String("uid", userID))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			reqLogger.Error("request failed", attrs...)
		case status >= 400:
			reqLogger.Warn("request rejected", attrs...)
		default:
			reqLogger.Info("request handled", attrs...)
		}
	}
}

// Logger returns the request-scoped logger, or the default one outside a
// request.
func Logger(c *gin.Context) *slog.Logger {
	if value, ok := c.Get(loggerContextKey); ok {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
