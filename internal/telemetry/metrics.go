package telemetry

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SearchSteps counts fallback chain steps by strategy and outcome (results, empty, error).
	SearchSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laundrylocator",
			Name:      "search_steps_total",
			Help:      "Search fallback steps executed, by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// CacheLookups counts cache hits and misses per cache layer
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laundrylocator",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)

	// BackendRequestDuration observes calls to the directory backend and the geocoder
	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "laundrylocator",
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of outbound HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream", "method", "status"},
	)

	// PageResponses counts page views by route and response type
	PageResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laundrylocator",
			Name:      "page_responses_total",
			Help:      "Page responses by route and response type",
		},
		[]string{"route", "type"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is safe to call more than once.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.MustRegister(
			SearchSteps,
			CacheLookups,
			BackendRequestDuration,
			PageResponses,
		)
	})
}

// ObserveUpstream returns a client observer that records latency for the named upstream.
func ObserveUpstream(upstream string) func(method string, status int, elapsed time.Duration) {
	return func(method string, status int, elapsed time.Duration) {
		BackendRequestDuration.
			WithLabelValues(upstream, method, strconv.Itoa(status)).
			Observe(elapsed.Seconds())
	}
}
