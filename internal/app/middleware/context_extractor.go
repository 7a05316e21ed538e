package middleware

import (
	"log/slog"
	"time"

	"credit-scoring-service/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// AttachRequestDetails tags every request with an ID, threads it through the
// request context for trace-correlated logging, and emits one access log line
// per request.
func AttachRequestDetails() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)

		ctx := logger.WithTraceID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		started := time.Now()
		c.Next()

		logger.CtxInfo(ctx, "Request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("client_ip", c.ClientIP()),
			slog.Int64("duration_ms", time.Since(started).Milliseconds()))
	}
}
