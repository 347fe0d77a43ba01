package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for JobsTotal.
const (
	OutcomeWritten         = "written"
	OutcomeWaiting         = "waiting"
	OutcomeInvalid         = "validation_failed"
	OutcomeProductNotFound = "product_not_found"
	OutcomeWriteFailed     = "write_failed"
)

var (
	// JobsTotal counts processed status notifications by outcome.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swodlr_update_jobs_total",
			Help: "Total number of SDS status notifications processed",
		},
		[]string{"outcome"},
	)

	// BatchesTotal counts consumed batches by result.
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swodlr_update_batches_total",
			Help: "Total number of status batches consumed",
		},
		[]string{"result"},
	)

	// BatchDuration tracks batch processing time in seconds.
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swodlr_update_batch_duration_seconds",
			Help:    "Duration of batch processing in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
	)

	// WorkersActive tracks the number of currently active batch workers.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swodlr_update_workers_active",
			Help: "Number of currently active batch worker goroutines",
		},
	)
)
