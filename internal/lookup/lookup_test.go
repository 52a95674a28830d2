package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/owner-resolver/internal/enrich"
	"github.com/sells-group/owner-resolver/internal/enrich/provider"
	"github.com/sells-group/owner-resolver/internal/feed"
	"github.com/sells-group/owner-resolver/internal/metrics"
	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/resilience"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

var (
	testBBL = model.BBL{Borough: model.Manhattan, Block: 123, Lot: 45}
	testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

type fakeFeed struct {
	name  string
	recs  []socrata.Record
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeFeed) Name() string         { return f.name }
func (f *fakeFeed) Source() model.Source { return model.Source(f.name) }
func (f *fakeFeed) Fetch(ctx context.Context, _ model.BBL) ([]socrata.Record, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

func registryOf(feeds ...feed.Feed) *feed.Registry {
	reg := feed.NewRegistry()
	for _, f := range feeds {
		reg.Register(f)
	}
	return reg
}

func violations(open, hazardous int) []socrata.Record {
	recs := make([]socrata.Record, 0, open)
	for i := range open {
		class := "B"
		if i < hazardous {
			class = "C"
		}
		recs = append(recs, socrata.Record{"violationstatus": "Open", "class": class})
	}
	return recs
}

// scenarioFeeds is a lot with one registered individual owner who also
// filed a recent permit, an open litigation case and a backlog of
// violations.
func scenarioFeeds() []feed.Feed {
	return []feed.Feed{
		&fakeFeed{name: feed.HPDRegistrations, recs: []socrata.Record{
			{"type": "IndividualOwner", "firstname": "JOHN", "lastname": "SMITH", "registrationid": "100"},
			{"type": "CorporateOwner", "corporationname": "SMITH HOLDINGS LLC", "registrationid": "100"},
		}},
		&fakeFeed{name: feed.DOBPermits, recs: []socrata.Record{{
			"owner_s_first_name": "John",
			"owner_s_last_name":  "Smith",
			"owner_s_phone__":    "212-555-1234",
			"issuance_date":      "2025-01-15T00:00:00.000",
		}}},
		&fakeFeed{name: feed.HPDViolations, recs: violations(12, 4)},
		&fakeFeed{name: feed.HPDLitigation, recs: []socrata.Record{
			{"casestatus": "OPEN", "respondent": "JOHN SMITH"},
		}},
		&fakeFeed{name: feed.TaxRoll, recs: []socrata.Record{
			{"ownername": "SMITH HOLDINGS LLC", "address": "10 MAIN ST", "unitsres": "24"},
		}},
	}
}

func fixedClock() func() time.Time { return func() time.Time { return testNow } }

func TestLookup_Aggregates(t *testing.T) {
	r := New(registryOf(scenarioFeeds()...), WithClock(fixedClock()))

	report, err := r.Lookup(context.Background(), testBBL, Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, testNow, report.GeneratedAt)
	assert.Equal(t, "10 MAIN ST", report.Address)
	assert.Equal(t, "SMITH HOLDINGS LLC", report.TaxRollOwner)
	assert.Len(t, report.Feeds, 5)
	for _, fs := range report.Feeds {
		assert.True(t, fs.OK(), fs.Feed)
	}

	require.Len(t, report.Phones, 1)
	assert.Equal(t, "2125551234", report.Phones[0].NormalizedPhone)
	assert.Equal(t, 100, report.Phones[0].Score)
	assert.Equal(t, report.Phones[0].NormalizedPhone, report.PrimaryPhone().NormalizedPhone)

	require.Len(t, report.Contacts, 3)
	assert.Equal(t, model.RoleOwnerApplicant, report.Contacts[0].Role)
	assert.Equal(t, model.RoleIndividualOwner, report.Contacts[1].Role)
	assert.Equal(t, model.RoleCorporateOwner, report.Contacts[2].Role)

	assert.Equal(t, "JOHN SMITH", report.Ownership.BestGuessName)
	assert.Equal(t, 95, report.Ownership.Confidence)

	assert.Equal(t, 60, report.Distress.Total)
	assert.Len(t, report.Distress.Signals, 3)
	assert.Equal(t, 12, report.Inputs.OpenViolations)
	assert.Equal(t, 4, report.Inputs.HazardousViolations)
	assert.Nil(t, report.Enrichment)
}

func TestAggregate_ContractorPhoneIsNotOwnerEvidence(t *testing.T) {
	res := &Results{
		Registrations: []socrata.Record{
			{"type": "IndividualOwner", "firstname": "JOHN", "lastname": "SMITH", "registrationid": "100"},
		},
		Permits: []socrata.Record{{
			"owner_s_first_name":        "John",
			"owner_s_last_name":         "Smith",
			"permittee_s_business_name": "BUILD CO",
			"permittee_s_phone__":       "718-555-9999",
			"issuance_date":             "2025-01-15T00:00:00.000",
		}},
	}

	report := Aggregate(testBBL, res, testNow)

	require.Len(t, report.Phones, 1)
	assert.Equal(t, "7185559999", report.Phones[0].NormalizedPhone)
	for _, c := range report.Contacts {
		assert.NotEqual(t, model.RoleOwnerApplicant, c.Role, c.Name)
		assert.Empty(t, c.Phone, c.Name)
	}
	assert.Equal(t, "JOHN SMITH", report.Ownership.BestGuessName)
	assert.Equal(t, 75, report.Ownership.Confidence)
	for _, reason := range report.Ownership.Reasoning {
		assert.NotContains(t, reason, "Phone on file")
	}
}

func TestLookup_FeedFailureDegrades(t *testing.T) {
	feeds := scenarioFeeds()
	feeds = append(feeds, &fakeFeed{name: feed.HPDComplaints, err: errors.New("upstream 500")})
	m := metrics.New(prometheus.NewRegistry())
	r := New(registryOf(feeds...), WithClock(fixedClock()), WithMetrics(m))

	report, err := r.Lookup(context.Background(), testBBL, Options{})
	require.NoError(t, err)

	var failed []string
	for _, fs := range report.Feeds {
		if !fs.OK() {
			failed = append(failed, fs.Feed)
			assert.Contains(t, fs.Error, "upstream 500")
		}
	}
	assert.Equal(t, []string{feed.HPDComplaints}, failed)
	assert.Zero(t, report.Inputs.RecentComplaints)
	assert.Equal(t, 60, report.Distress.Total)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues(feed.HPDComplaints, OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues(feed.TaxRoll, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("ok")))
}

func TestLookup_PerFeedTimeout(t *testing.T) {
	slow := &fakeFeed{name: feed.HPDViolations, delay: 5 * time.Second}
	fast := &fakeFeed{name: feed.TaxRoll, recs: []socrata.Record{{"ownername": "SMITH LLC"}}}
	m := metrics.New(prometheus.NewRegistry())
	r := New(registryOf(slow, fast), WithTimeout(50*time.Millisecond), WithClock(fixedClock()), WithMetrics(m))

	start := time.Now()
	report, err := r.Lookup(context.Background(), testBBL, Options{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, report.Feeds, 2)
	assert.Equal(t, feed.HPDViolations, report.Feeds[0].Feed)
	assert.Contains(t, report.Feeds[0].Error, "deadline exceeded")
	assert.True(t, report.Feeds[1].OK())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues(feed.HPDViolations, OutcomeTimeout)))
}

func TestLookup_AllFeedsFail(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := New(registryOf(
		&fakeFeed{name: feed.HPDViolations, err: errors.New("boom")},
		&fakeFeed{name: feed.TaxRoll, err: errors.New("boom")},
	), WithMetrics(m))

	report, err := r.Lookup(context.Background(), testBBL, Options{})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("no_data")))
}

func TestLookup_NoFeeds(t *testing.T) {
	_, err := New(feed.NewRegistry()).Lookup(context.Background(), testBBL, Options{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLookup_EmptyFeedsStillSucceed(t *testing.T) {
	r := New(registryOf(&fakeFeed{name: feed.HPDRegistrations}), WithClock(fixedClock()))

	report, err := r.Lookup(context.Background(), testBBL, Options{})
	require.NoError(t, err)
	assert.NotNil(t, report.Phones)
	assert.Empty(t, report.Phones)
	assert.NotNil(t, report.Contacts)
	assert.Zero(t, report.Ownership.Confidence)
	assert.Equal(t, []string{"No registered owner found"}, report.Ownership.Reasoning)
	assert.Zero(t, report.Distress.Total)
	assert.Nil(t, report.PrimaryPhone())
}

func TestLookup_BreakerShortCircuits(t *testing.T) {
	failing := &fakeFeed{name: feed.HPDViolations, err: errors.New("upstream 503")}
	ok := &fakeFeed{name: feed.TaxRoll}
	m := metrics.New(prometheus.NewRegistry())
	breakers := resilience.NewBreakers(resilience.BreakerConfig{FailureThreshold: 1, CooldownSecs: 60})
	r := New(registryOf(failing, ok), WithBreakers(breakers), WithMetrics(m))

	_, err := r.Lookup(context.Background(), testBBL, Options{})
	require.NoError(t, err)
	report, err := r.Lookup(context.Background(), testBBL, Options{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(2), ok.calls.Load())
	assert.Contains(t, report.Feeds[0].Error, "circuit breaker is open")
	assert.Equal(t, resilience.Open, breakers.States()[feed.HPDViolations])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedFetches.WithLabelValues(feed.HPDViolations, OutcomeCircuitOpen)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues(feed.HPDViolations, "open")))
}

func TestLookup_BreakerCreatedBeforeResolverStillReports(t *testing.T) {
	failing := &fakeFeed{name: feed.HPDViolations, err: errors.New("upstream 503")}
	m := metrics.New(prometheus.NewRegistry())
	breakers := resilience.NewBreakers(resilience.BreakerConfig{FailureThreshold: 1, CooldownSecs: 60})
	breakers.Get(feed.HPDViolations)

	r := New(registryOf(failing, &fakeFeed{name: feed.TaxRoll}), WithBreakers(breakers), WithMetrics(m))
	_, err := r.Lookup(context.Background(), testBBL, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues(feed.HPDViolations, "open")))
}

// stubProvider returns the same email for everyone.
type stubProvider struct {
	calls atomic.Int32
}

func (s *stubProvider) Name() string                    { return "peoplelookup" }
func (s *stubProvider) SupportedFields() []string       { return []string{provider.FieldPhone, provider.FieldEmail} }
func (s *stubProvider) CanProvide(string) bool          { return true }
func (s *stubProvider) CostPerQuery(_ []string) float64 { return 0.1 }
func (s *stubProvider) Query(_ context.Context, p provider.Person, _ []string) (*provider.QueryResult, error) {
	s.calls.Add(1)
	asOf := time.Now()
	return &provider.QueryResult{
		Provider: s.Name(),
		CostUSD:  0.1,
		Fields: []provider.FieldResult{
			{Field: provider.FieldEmail, Value: fmt.Sprintf("%d@example.com", len(p.Name)), Confidence: 0.9, DataAsOf: &asOf},
		},
	}, nil
}

func TestLookup_Enrichment(t *testing.T) {
	stub := &stubProvider{}
	providers := provider.NewRegistry()
	providers.Register(stub)
	m := metrics.New(prometheus.NewRegistry())
	r := New(registryOf(scenarioFeeds()...),
		WithClock(fixedClock()),
		WithMetrics(m),
		WithEnricher(enrich.NewExecutor(enrich.Default(), providers)),
	)

	report, err := r.Lookup(context.Background(), testBBL, Options{})
	require.NoError(t, err)
	require.NotNil(t, report.Enrichment)
	assert.Equal(t, 3, report.Enrichment.Attempted)
	assert.Equal(t, 3, report.Enrichment.Backfilled)
	assert.InDelta(t, 0.3, report.Enrichment.CostUSD, 0.0001)
	for _, c := range report.Contacts {
		assert.NotEmpty(t, c.Email, c.Name)
	}
	// Ownership is resolved before backfill.
	assert.Equal(t, 95, report.Ownership.Confidence)
	assert.InDelta(t, 0.3, testutil.ToFloat64(m.EnrichmentCost), 0.0001)
}

func TestLookup_SkipEnrichment(t *testing.T) {
	stub := &stubProvider{}
	providers := provider.NewRegistry()
	providers.Register(stub)
	r := New(registryOf(scenarioFeeds()...), WithEnricher(enrich.NewExecutor(nil, providers)))

	report, err := r.Lookup(context.Background(), testBBL, Options{SkipEnrichment: true})
	require.NoError(t, err)
	assert.Nil(t, report.Enrichment)
	assert.Zero(t, stub.calls.Load())
}

func TestResults_SlotsAreDisjoint(t *testing.T) {
	var res Results
	names := []string{
		feed.HPDRegistrations, feed.DOBPermits, feed.DOBJobs, feed.HPDViolations, feed.HPDLitigation,
		feed.ECBViolations, feed.HPDComplaints, feed.SpeculationWatch, feed.TaxRoll, feed.RentStabilized,
	}
	seen := make(map[*[]socrata.Record]string)
	for _, n := range names {
		s := res.slot(n)
		require.NotNil(t, s, n)
		_, dup := seen[s]
		assert.False(t, dup, n)
		seen[s] = n
	}
	assert.Nil(t, res.slot("unknown"))
}

func TestInputs(t *testing.T) {
	res := &Results{
		ECBViolations: []socrata.Record{{"balance_due": "12000"}},
		WatchList:     []socrata.Record{{"bbl": testBBL.String()}},
		RentStabilized: []socrata.Record{
			{"year": "2007", "uc": "40"},
			{"year": "2019", "uc": "20"},
		},
		Complaints: []socrata.Record{{"received_date": "2025-01-01"}},
	}
	in := Inputs(res, testNow)
	assert.InDelta(t, 12000, in.PenaltyBalance, 0.001)
	assert.True(t, in.OnWatchList)
	assert.Equal(t, 40, in.BaselineUnits)
	assert.Equal(t, 20, in.LatestUnits)
	assert.Equal(t, 1, in.RecentComplaints)
}

func TestAreaFor(t *testing.T) {
	area := areaFor(&model.Report{BBL: testBBL, Address: "10 MAIN ST"})
	assert.Equal(t, provider.Person{Address: "10 MAIN ST", City: "NEW YORK", State: "NY"}, area)

	area = areaFor(&model.Report{BBL: model.BBL{Borough: model.Queens, Block: 1, Lot: 1}})
	assert.Equal(t, "QUEENS", area.City)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeOK, classify(nil))
	assert.Equal(t, OutcomeTimeout, classify(context.DeadlineExceeded))
	assert.Equal(t, OutcomeCircuitOpen, classify(fmt.Errorf("wrapped: %w", resilience.ErrCircuitOpen)))
	assert.Equal(t, OutcomeError, classify(errors.New("boom")))
}
