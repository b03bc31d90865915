package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CapabilityCacheHits    prometheus.Counter
	CapabilityCacheMisses  prometheus.Counter
	CapabilityCacheEvicted prometheus.Counter
	CapabilityQueries      prometheus.Counter
	CapabilityFailures     prometheus.Counter
	DirectoryQueries       prometheus.Counter
	DirectoryFailures      prometheus.Counter
	LookupDuration         prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		CapabilityCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locator_capability_cache_hits_total",
			Help: "Total number of capability cache hits",
		}),
		CapabilityCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locator_capability_cache_misses_total",
			Help: "Total number of capability cache misses",
		}),
		CapabilityCacheEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locator_capability_cache_evicted_total",
			Help: "Total number of capability cache entries evicted by sweep or clear",
		}),
		CapabilityQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locator_capability_queries_total",
			Help: "Total number of remote capability queries",
		}),
		CapabilityFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locator_capability_failures_total",
			Help: "Total number of failed remote capability queries",
		}),
		DirectoryQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locator_directory_queries_total",
			Help: "Total number of directory queries",
		}),
		DirectoryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locator_directory_failures_total",
			Help: "Total number of failed directory queries",
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "locator_lookup_duration_seconds",
			Help:    "End to end duration of lookup requests",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementCacheHits() {
	m.CapabilityCacheHits.Inc()
}

func (m *Metrics) IncrementCacheMisses() {
	m.CapabilityCacheMisses.Inc()
}

func (m *Metrics) AddCacheEvicted(n int) {
	m.CapabilityCacheEvicted.Add(float64(n))
}

func (m *Metrics) IncrementCapabilityQueries() {
	m.CapabilityQueries.Inc()
}

func (m *Metrics) IncrementCapabilityFailures() {
	m.CapabilityFailures.Inc()
}

func (m *Metrics) IncrementDirectoryQueries() {
	m.DirectoryQueries.Inc()
}

func (m *Metrics) IncrementDirectoryFailures() {
	m.DirectoryFailures.Inc()
}

func (m *Metrics) ObserveLookupDuration(d time.Duration) {
	m.LookupDuration.Observe(d.Seconds())
}
