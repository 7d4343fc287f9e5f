// Package metrics exposes Prometheus instrumentation for the render job
// lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cosmos_render_jobs_submitted_total",
			Help: "Total number of render jobs submitted",
		},
	)

	JobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cosmos_render_jobs_completed_total",
			Help: "Total number of render jobs reaching a terminal state",
		},
		[]string{"backend", "success"}, // success: "true" or "false"
	)

	JobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cosmos_render_jobs_running",
			Help: "Current number of jobs being driven",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cosmos_render_queue_depth",
			Help: "Jobs waiting in the dispatch queue",
		},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cosmos_render_job_duration_seconds",
			Help:    "Render job drive duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~163s
		},
		[]string{"backend"},
	)
)
