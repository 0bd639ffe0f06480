package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the acquisition pipeline.
type Metrics struct {
	// Upstream fetches.
	FetchTotal    *prometheus.CounterVec   // labels: station, outcome={success,no_data,error}
	FetchDuration *prometheus.HistogramVec // labels: station

	// Cache behaviour.
	CacheLookups    *prometheus.CounterVec // labels: result={hit,miss}
	CacheEntries    prometheus.Gauge
	CoalescedLoads  prometheus.Counter
	AggregationRuns prometheus.Counter

	// Scheduled refresh.
	RefreshTotal *prometheus.CounterVec // labels: outcome={success,error}
}

func newCollectors() *Metrics {
	return &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ob_monitor",
			Name:      "fetch_total",
			Help:      "Gauge page fetches by station and reading status.",
		}, []string{"station", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ob_monitor",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single gauge page fetch and extraction.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"station"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ob_monitor",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ob_monitor",
			Name:      "cache_entries",
			Help:      "Stored cache entries, including stale ones not yet overwritten.",
		}),
		CoalescedLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ob_monitor",
			Name:      "cache_coalesced_loads_total",
			Help:      "Cache loads that shared an in-flight upstream fetch.",
		}),
		AggregationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ob_monitor",
			Name:      "aggregation_runs_total",
			Help:      "Concurrent fetch passes over the whole registry.",
		}),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ob_monitor",
			Name:      "scheduled_refresh_total",
			Help:      "Scheduled refresh runs by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.CacheLookups,
		m.CacheEntries,
		m.CoalescedLoads,
		m.AggregationRuns,
		m.RefreshTotal,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}
