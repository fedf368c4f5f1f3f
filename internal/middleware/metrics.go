package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/telemetry"
)

// Metrics records request count and latency for every request.
//
// The path label uses c.FullPath(), the matched route template
// (e.g. /api/instances/:id) rather than the raw URL, so per-instance IDs do
// not inflate label cardinality. Requests that match no registered route use
// the literal "<no-route>".
//
// Must be registered after gin.Recovery() so the status written by the panic
// handler is captured.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		status := fmt.Sprintf("%d", c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
