package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	PipelineBMI   = "bmi"
	PipelineGlyph = "glyph"
)

var (
	InferenceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_requests_total",
			Help: "Total number of inference requests by pipeline and outcome",
		},
		[]string{"pipeline", "status"},
	)

	InferenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_errors_total",
			Help: "Total number of failed inference requests by error code",
		},
		[]string{"pipeline", "code"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_duration_seconds",
			Help:    "Duration of a full pipeline run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"pipeline"},
	)

	BMICategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bmi_category_total",
			Help: "BMI category assignments",
		},
		[]string{"category"},
	)

	GlyphPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glyph_predictions_total",
			Help: "Predicted glyph labels",
		},
		[]string{"label"},
	)

	BundleReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_reloads_total",
			Help: "Model bundle reload attempts by outcome",
		},
		[]string{"status"},
	)
)
