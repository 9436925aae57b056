// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vividplate_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"op"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vividplate_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MenuViews counts recorded menu views by source (qr, link).
	MenuViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vividplate_menu_views_total",
		Help: "Total number of recorded menu views",
	}, []string{"source"})

	// Recommendations counts recommendation requests by outcome.
	Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vividplate_recommendations_total",
		Help: "Total number of menu recommendation requests",
	}, []string{"outcome"})

	// FeedbackSubmitted counts diner feedback submissions.
	FeedbackSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vividplate_feedback_submitted_total",
		Help: "Total number of feedback entries submitted",
	})

	// Uploads counts stored image uploads by kind and storage backend.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vividplate_uploads_total",
		Help: "Total number of processed image uploads",
	}, []string{"kind", "backend"})

	// SchedulerRuns counts background job executions by result.
	SchedulerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vividplate_scheduler_runs_total",
		Help: "Total number of scheduled job runs",
	}, []string{"job", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordRedisError increments the Redis error counter for op.
func RecordRedisError(op string) {
	RedisErrors.WithLabelValues(op).Inc()
}
