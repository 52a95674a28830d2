package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFeed("hpd_violations", "ok", 120*time.Millisecond)
	m.ObserveFeed("hpd_violations", "error", time.Second)
	m.ObserveFeed("dob_permits", "ok", time.Second)
	m.ObserveLookup("ok", 2*time.Second)
	m.ObserveScores(70, 95)
	m.AddEnrichmentCost(0.25)
	m.AddEnrichmentCost(-1)
	m.IncBreakerTransition("hpd_violations", "open")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues("hpd_violations", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues("hpd_violations", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("ok")))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.EnrichmentCost))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("hpd_violations", "open")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.FeedLatency))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 8)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFeed("x", "ok", time.Second)
		m.ObserveLookup("ok", time.Second)
		m.ObserveScores(1, 2)
		m.AddEnrichmentCost(1)
		m.IncBreakerTransition("x", "open")
	})
}
