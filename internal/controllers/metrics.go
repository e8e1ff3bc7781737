package controllers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcomes recorded in popcorn_search_cycles_total and popcorn_detail_fetches_total
const (
	outcomeSuccess   = "success"
	outcomeNotFound  = "not_found"
	outcomeFailure   = "failure"
	outcomeCancelled = "cancelled"
	outcomeSkipped   = "skipped"
)

// Metrics holds the Prometheus collectors of the controllers
type Metrics struct {
	SearchCycles        *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
	DetailFetches       *prometheus.CounterVec
	WatchedEntries      prometheus.Gauge
	PersistenceFailures prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "popcorn",
			Name:      "search_cycles_total",
			Help:      "Search request cycles by outcome.",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "popcorn",
			Name:      "search_duration_seconds",
			Help:      "Duration of search cycles that reached the network and were not superseded.",
			Buckets:   prometheus.DefBuckets,
		}),
		DetailFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "popcorn",
			Name:      "detail_fetches_total",
			Help:      "Detail fetches by outcome.",
		}, []string{"outcome"}),
		WatchedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "popcorn",
			Name:      "watched_entries",
			Help:      "Number of entries in the watched list.",
		}),
		PersistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "popcorn",
			Name:      "watched_persistence_failures_total",
			Help:      "Failed writes of the watched list to durable storage.",
		}),
	}

	reg.MustRegister(m.SearchCycles, m.SearchDuration, m.DetailFetches, m.WatchedEntries, m.PersistenceFailures)
	return m
}

// The helpers below accept a nil receiver so controllers can run without metrics

func (m *Metrics) searchOutcome(outcome string) {
	if m == nil {
		return
	}
	m.SearchCycles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(d.Seconds())
}

func (m *Metrics) detailOutcome(outcome string) {
	if m == nil {
		return
	}
	m.DetailFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) watchedCount(n int) {
	if m == nil {
		return
	}
	m.WatchedEntries.Set(float64(n))
}

func (m *Metrics) persistenceFailed() {
	if m == nil {
		return
	}
	m.PersistenceFailures.Inc()
}
