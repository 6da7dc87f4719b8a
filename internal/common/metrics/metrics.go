// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Analysis cache and pipeline metrics.
var (
	AnalysisCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_analysis_cache_lookups_total",
			Help: "Analysis cache lookups by result (hit or the invalidation reason)",
		},
		[]string{"result"},
	)

	AnalysisComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credit_analysis_compute_duration_seconds",
			Help:    "Duration of a full analysis recompute",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	AnalysisPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credit_analysis_persist_failures_total",
			Help: "Recomputed analyses that could not be written to the record store",
		},
	)

	EconomicSnapshotFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_economic_snapshot_fallbacks_total",
			Help: "Times the default economic snapshot replaced live data",
		},
		[]string{"reason"},
	)

	DefaultProbability = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credit_default_probability",
			Help:    "Distribution of computed default probabilities (percent)",
			Buckets: []float64{5, 10, 15, 20, 30, 40, 50, 60, 70, 80, 95},
		},
	)
)
