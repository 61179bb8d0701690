// Package telemetry holds the Prometheus collectors for fetch and cache
// activity.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seenimoa/fedlens/internal/catalog"
)

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// OtherSeries labels fetches of keys outside the catalog.
const OtherSeries = "other"

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	fetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fedlens",
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Provider requests by series and outcome.",
		},
		[]string{"series", "outcome"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fedlens",
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Duration of provider requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"outcome"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fedlens",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Series cache lookups by result.",
		},
		[]string{"result"},
	)

	analysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fedlens",
			Subsystem: "dashboard",
			Name:      "analysis_runs_total",
			Help:      "Analyses computed, by name.",
		},
		[]string{"analysis"},
	)
)

func init() {
	Registry.MustRegister(
		fetchRequests,
		fetchDuration,
		cacheLookups,
		analysisRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordFetch records one provider request. Keys are caller supplied, so
// only catalog keys get their own label.
func RecordFetch(series string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	fetchRequests.WithLabelValues(seriesLabel(series), outcome).Inc()
	fetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func seriesLabel(key string) string {
	if _, ok := catalog.Lookup(key); ok {
		return key
	}
	return OtherSeries
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues(CacheHit).Inc()
		return
	}
	cacheLookups.WithLabelValues(CacheMiss).Inc()
}

// RecordAnalysis counts a completed analysis.
func RecordAnalysis(name string) {
	analysisRuns.WithLabelValues(name).Inc()
}
