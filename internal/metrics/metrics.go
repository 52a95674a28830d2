// Package metrics exposes Prometheus instrumentation for lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lookup pipeline. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Feed fetch outcomes by feed and outcome (ok, error, timeout, circuit_open).
	FeedFetches *prometheus.CounterVec

	// Feed fetch latencies by feed
	FeedLatency *prometheus.HistogramVec

	// Lookup outcomes by status (ok, no_data)
	Lookups *prometheus.CounterVec

	// Full lookup latency including enrichment
	LookupLatency prometheus.Histogram

	DistressScore       prometheus.Histogram
	OwnershipConfidence prometheus.Histogram

	// Enrichment backfill spend
	EnrichmentCost prometheus.Counter

	// Circuit breaker transitions by feed and target state
	BreakerTransitions *prometheus.CounterVec
}

// New creates the lookup metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	scoreBuckets := prometheus.LinearBuckets(0, 10, 11)
	return &Metrics{
		FeedFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "owner_feed_fetches_total",
			Help: "Feed fetches by feed and outcome",
		}, []string{"feed", "outcome"}),

		FeedLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "owner_feed_fetch_duration_seconds",
			Help:    "Duration of a single feed fetch",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"feed"}),

		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "owner_lookups_total",
			Help: "Property lookups by status",
		}, []string{"status"}),

		LookupLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "owner_lookup_duration_seconds",
			Help:    "Duration of a full property lookup",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),

		DistressScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "owner_distress_score",
			Help:    "Distribution of computed distress scores",
			Buckets: scoreBuckets,
		}),

		OwnershipConfidence: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "owner_ownership_confidence",
			Help:    "Distribution of ownership resolution confidence",
			Buckets: scoreBuckets,
		}),

		EnrichmentCost: f.NewCounter(prometheus.CounterOpts{
			Name: "owner_enrichment_cost_usd_total",
			Help: "Total spend on enrichment providers",
		}),

		BreakerTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "owner_feed_breaker_transitions_total",
			Help: "Feed circuit breaker state transitions",
		}, []string{"feed", "to"}),
	}
}

// ObserveFeed records one feed fetch.
func (m *Metrics) ObserveFeed(feed, outcome string, d time.Duration) {
	if m != nil {
		m.FeedFetches.WithLabelValues(feed, outcome).Inc()
		m.FeedLatency.WithLabelValues(feed).Observe(d.Seconds())
	}
}

// ObserveLookup records a finished lookup.
func (m *Metrics) ObserveLookup(status string, d time.Duration) {
	if m != nil {
		m.Lookups.WithLabelValues(status).Inc()
		m.LookupLatency.Observe(d.Seconds())
	}
}

// ObserveScores records the derived scores of a successful lookup.
func (m *Metrics) ObserveScores(distress, confidence int) {
	if m != nil {
		m.DistressScore.Observe(float64(distress))
		m.OwnershipConfidence.Observe(float64(confidence))
	}
}

// AddEnrichmentCost records provider spend.
func (m *Metrics) AddEnrichmentCost(usd float64) {
	if m != nil && usd > 0 {
		m.EnrichmentCost.Add(usd)
	}
}

// IncBreakerTransition records a breaker moving to state to.
func (m *Metrics) IncBreakerTransition(feed, to string) {
	if m != nil {
		m.BreakerTransitions.WithLabelValues(feed, to).Inc()
	}
}
