package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "provider_requests_total",
		Help:      "Total remote catalog calls by endpoint and result status.",
	}, []string{"endpoint", "status"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "provider_request_duration_seconds",
		Help:      "Remote catalog call duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	ProviderAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "catalog",
		Name:      "provider_available",
		Help:      "Whether a remote endpoint is available (1) or blocked by circuit breaker (0).",
	}, []string{"endpoint"})

	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "resolutions_total",
		Help:      "Total search resolutions by the tier that produced the answer.",
	}, []string{"source"})

	ResolutionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "resolution_duration_seconds",
		Help:      "End-to-end search resolution duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "cache_hits_total",
		Help:      "Total number of provider response cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "cache_misses_total",
		Help:      "Total number of provider response cache misses.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ProviderAvailable,
		ResolutionsTotal,
		ResolutionDuration,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
