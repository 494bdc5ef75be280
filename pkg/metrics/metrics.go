package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	compilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blade_compilations_total",
			Help: "Total number of template compilations",
		},
		[]string{"result"},
	)

	compileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blade_compile_duration_seconds",
			Help:    "Template compilation duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"result"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blade_cache_lookups_total",
			Help: "Compiled artifact lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveCompile records one pipeline run.
func ObserveCompile(result string, d time.Duration) {
	compilationsTotal.WithLabelValues(result).Inc()
	compileDuration.WithLabelValues(result).Observe(d.Seconds())
}

// CacheHit records an artifact that was still fresh.
func CacheHit() {
	cacheLookupsTotal.WithLabelValues("hit").Inc()
}

// CacheMiss records an artifact that had to be rebuilt.
func CacheMiss() {
	cacheLookupsTotal.WithLabelValues("miss").Inc()
}

// WriteTextfile dumps the default registry in the text exposition format,
// for collection by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
