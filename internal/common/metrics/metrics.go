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

var (
	UnknownTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_unknown_tokens_total",
			Help: "User tokens dropped because the encoder vocabulary does not contain them",
		},
		[]string{"field"},
	)

	CatalogMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "career_catalog_misses_total",
			Help: "Predicted careers with no catalog entry",
		},
	)

	SchemaDrift = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_schema_drift_total",
			Help: "Requests rejected because features, schema or model output disagreed",
		},
		[]string{"code"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "career_inference_duration_seconds",
			Help:    "Duration of one recommendation path",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"path"},
	)

	ArtifactReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_artifact_reloads_total",
			Help: "Encoder set reload attempts",
		},
		[]string{"result"},
	)

	FitCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_similarity_fit_cache_total",
			Help: "Similarity fit cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
