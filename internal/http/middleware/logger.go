package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"talentgraph.app/sourcer/common/logger"
)

// Logger emits one structured log line per request after the handler chain
// completes. When the caller supplied a tenant header the tenant id is pushed
// into the context log fields so handler and service logs carry it too.
func Logger(tenantHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		if tenant := c.GetHeader(tenantHeader); tenant != "" {
			ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
				TenantID:  logger.Ptr(tenant),
				Component: "sourcer.http",
			})
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		ctx := c.Request.Context()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request error", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}
