package metrics

import "github.com/prometheus/client_golang/prometheus"

// AI provider and retrieval Prometheus metrics.
var (
	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylesearch",
			Name:      "ai_requests_total",
			Help:      "Total number of AI provider calls",
		},
		[]string{"call", "status"},
	)

	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stylesearch",
			Name:      "ai_request_duration_seconds",
			Help:      "AI provider call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"call"},
	)

	AIRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylesearch",
			Name:      "ai_retries_total",
			Help:      "AI calls retried after a rate limit",
		},
		[]string{"call"},
	)

	AIDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylesearch",
			Name:      "ai_degraded_total",
			Help:      "AI calls that fell back to degraded output",
		},
		[]string{"call"},
	)

	CaptionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylesearch",
			Name:      "caption_cache_total",
			Help:      "Image caption cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearchStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylesearch",
			Name:      "search_stage_total",
			Help:      "Executed retrieval stages by outcome",
		},
		[]string{"stage", "outcome"}, // outcome: "hit" / "empty" / "error"
	)
)

var aiMetricsRegistered bool

// RegisterAIMetrics registers AI, cache and retrieval metrics. Must be called once from main.
func RegisterAIMetrics() {
	if aiMetricsRegistered {
		return
	}
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIRetriesTotal)
	prometheus.MustRegister(AIDegradedTotal)
	prometheus.MustRegister(CaptionCacheTotal)
	prometheus.MustRegister(SearchStageTotal)
	aiMetricsRegistered = true
}
