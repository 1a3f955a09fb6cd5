package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Recommendation Prometheus metrics.
var (
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations served, by selection mode",
		},
		[]string{"mode"},
	)

	RecommendSurfacedItems = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_surfaced_items",
			Help:      "Number of items surfaced per recommendation",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		},
		[]string{"mode"},
	)

	RecommendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "End-to-end recommendation latency",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	RecommendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_errors_total",
			Help:      "Recommendations that failed with a catalog or context error",
		},
	)
)

var recOnce sync.Once

// RegisterRecommendMetrics registers recommendation metrics with the default registry.
func RegisterRecommendMetrics() {
	recOnce.Do(func() {
		prometheus.MustRegister(
			RecommendationsTotal,
			RecommendSurfacedItems,
			RecommendDuration,
			RecommendErrorsTotal,
		)
	})
}
