// Package telemetry provides application-level observability for the Team D backend.
//
// All metrics are registered against the default Prometheus registry and served on
// the side-channel HTTP server started by main.go (default port 9090, path /metrics).
// The endpoint is not part of the Gin router, keeping the scrape path off the public
// ingress and away from rate-limiting middleware.
//
// HTTP metrics use c.FullPath() (route template such as /api/instances/:id) rather
// than the raw request URL to prevent unbounded label cardinality from user-supplied
// path segments.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Login metrics — labelled by outcome so brute-force attempts and broken
// account provisioning show up on the same panel.
//
// Outcomes: "success", "user_not_found", "invalid_email", "error".
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// SessionEventsPublished counts events fanned out on the session broadcast hub,
// by event type ("logout" today).
var SessionEventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "session_events_published_total",
		Help: "Total number of session events published on the broadcast hub, by type.",
	},
	[]string{"type"},
)

// DBOpenConnections tracks the connection pool size, sampled by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
