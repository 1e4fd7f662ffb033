// Package metrics holds the Prometheus collectors of the analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompletionsTracked counts completion events folded into analytics records.
	CompletionsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanso_analytics_completions_tracked_total",
			Help: "Completion events applied to analytics records",
		},
		[]string{"kind"},
	)

	// TrackingFailures counts completion events that could not be applied.
	TrackingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanso_analytics_tracking_failures_total",
			Help: "Completion events that failed to update analytics",
		},
		[]string{"kind", "reason"},
	)

	// WriteConflicts counts compare-and-swap saves lost to a concurrent writer.
	WriteConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kanso_analytics_write_conflicts_total",
			Help: "Analytics record saves rejected by the version check",
		},
	)

	// RecordsReinitialized counts malformed records replaced by defaults.
	RecordsReinitialized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kanso_analytics_records_reinitialized_total",
			Help: "Malformed analytics records replaced with a fresh record",
		},
	)

	ResetRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanso_analytics_reset_runs_total",
			Help: "Periodic reset batches by period and outcome",
		},
		[]string{"period", "outcome"},
	)

	ResetUserFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanso_analytics_reset_user_failures_total",
			Help: "Per-user failures inside periodic reset batches",
		},
		[]string{"period"},
	)

	ResetDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kanso_analytics_reset_duration_seconds",
			Help:    "Duration of periodic reset batches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"period"},
	)

	// WorkerJobsDropped counts analytics jobs rejected because the queue was full.
	WorkerJobsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kanso_analytics_worker_jobs_dropped_total",
			Help: "Analytics worker jobs dropped on a full queue",
		},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanso_analytics_cache_requests_total",
			Help: "Analytics cache lookups by result",
		},
		[]string{"result"},
	)
)
