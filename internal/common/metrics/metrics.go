// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssessmentsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assessments_completed_total",
			Help: "Total number of assessments completed successfully",
		},
	)

	AssessmentsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_failed_total",
			Help: "Total number of assessments that transitioned to failed",
		},
		[]string{"reason"},
	)

	DocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_ingested_total",
			Help: "Total number of documents successfully ingested",
		},
		[]string{"kind"},
	)

	DocumentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_rejected_total",
			Help: "Total number of uploaded documents rejected",
		},
		[]string{"reason"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of each assessment pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	PipelinesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipelines_active",
			Help: "Number of assessment pipelines currently running",
		},
	)
)
