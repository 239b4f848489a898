// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendRequests counts Recommend calls by outcome: ok, not_found, error.
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialrank_recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "socialrank_recommend_duration_seconds",
			Help:    "Recommendation latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// ArticlesSkipped counts articles dropped before scoring, by reason.
	ArticlesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialrank_articles_skipped_total",
			Help: "Articles excluded from scoring because of data integrity problems",
		},
		[]string{"reason"},
	)

	// IngestArticles counts feed entries by result: new, duplicate, error.
	IngestArticles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialrank_ingest_articles_total",
			Help: "Feed entries processed by the ingest pipeline",
		},
		[]string{"result"},
	)
)
