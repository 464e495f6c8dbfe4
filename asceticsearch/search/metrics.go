package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "asceticsearch"

var (
	queryDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:                       metricsNamespace,
		Name:                            "search_query_duration_ms",
		Help:                            "Time spent executing a search query against the database.",
		Buckets:                         []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 30000},
		NativeHistogramBucketFactor:     1.1,
		NativeHistogramMaxBucketNumber:  100,
		NativeHistogramMinResetDuration: time.Hour,
	}, []string{"mode", "custom_query"})

	queryErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "search_query_errors_total",
		Help:      "Search queries that failed to compile or execute.",
	}, []string{"mode"})

	customQueryHitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "search_custom_query_hits_total",
		Help:      "Search queries executed through a precompiled stored procedure.",
	})

	includesTruncatedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "search_includes_truncated_total",
		Help:      "Searches whose included resources were cut at the include count.",
	})
)
