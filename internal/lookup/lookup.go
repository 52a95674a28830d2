// Package lookup fans out over every configured feed for one lot, then
// folds whatever came back into a single best-effort report.
package lookup

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/owner-resolver/internal/enrich"
	"github.com/sells-group/owner-resolver/internal/enrich/provider"
	"github.com/sells-group/owner-resolver/internal/feed"
	"github.com/sells-group/owner-resolver/internal/metrics"
	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/resilience"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

// ErrNoData is returned when no feed produced a usable response.
var ErrNoData = eris.New("lookup: no feed returned data")

// DefaultTimeout bounds each individual feed call.
const DefaultTimeout = 8 * time.Second

// Fetch outcomes, used as metric labels.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeCircuitOpen = "circuit_open"
)

// Options tune a single lookup.
type Options struct {
	// SkipEnrichment disables third-party backfill for this lookup.
	SkipEnrichment bool
}

// Resolver runs lookups against a fixed set of feeds. It is safe for
// concurrent use.
type Resolver struct {
	feeds    *feed.Registry
	breakers *resilience.Breakers
	enricher *enrich.Executor
	metrics  *metrics.Metrics
	timeout  time.Duration
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the per-feed call timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithBreakers shares a breaker set across resolvers.
func WithBreakers(b *resilience.Breakers) Option {
	return func(r *Resolver) { r.breakers = b }
}

// WithEnricher enables contact backfill after aggregation.
func WithEnricher(e *enrich.Executor) Option {
	return func(r *Resolver) { r.enricher = e }
}

// WithMetrics records fetch and lookup metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithClock overrides the wall clock used for recency rules and report
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New creates a Resolver over feeds.
func New(feeds *feed.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		feeds:   feeds,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.breakers == nil {
		r.breakers = resilience.NewBreakers(resilience.BreakerConfig{})
	}
	if r.breakers.OnStateChange == nil {
		m := r.metrics
		r.breakers.OnStateChange = func(name string, from, to resilience.State) {
			zap.L().Info("lookup: feed breaker state change",
				zap.String("feed", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			m.IncBreakerTransition(name, to.String())
		}
	}
	return r
}

// Lookup queries every feed for bbl concurrently and aggregates the
// results. Individual feed failures degrade to empty inputs and are
// recorded in Report.Feeds; only a total failure returns ErrNoData.
func (r *Resolver) Lookup(ctx context.Context, bbl model.BBL, opts Options) (*model.Report, error) {
	start := time.Now()
	log := zap.L().With(zap.String("bbl", bbl.String()))

	res, statuses := r.fetchAll(ctx, bbl)
	if !anyOK(statuses) {
		log.Error("lookup: every feed failed", zap.Int("feeds", len(statuses)))
		r.metrics.ObserveLookup("no_data", time.Since(start))
		return nil, eris.Wrapf(ErrNoData, "lookup: bbl %s", bbl.Display())
	}

	report := Aggregate(bbl, res, r.now())
	report.ID = uuid.New().String()
	report.Feeds = statuses

	if r.enricher != nil && !opts.SkipEnrichment {
		contacts, summary := r.enricher.Backfill(ctx, report.Contacts, areaFor(report))
		report.Contacts = contacts
		report.Enrichment = &summary
		r.metrics.AddEnrichmentCost(summary.CostUSD)
	}

	r.metrics.ObserveScores(report.Distress.Total, report.Ownership.Confidence)
	r.metrics.ObserveLookup("ok", time.Since(start))
	log.Info("lookup: complete",
		zap.Int("phones", len(report.Phones)),
		zap.Int("contacts", len(report.Contacts)),
		zap.Int("distress", report.Distress.Total),
		zap.Int("confidence", report.Ownership.Confidence),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// fetchAll runs one task per feed. Every task writes only its own result
// slot and status index, so no locking is needed.
func (r *Resolver) fetchAll(ctx context.Context, bbl model.BBL) (*Results, []model.FeedStatus) {
	feeds := r.feeds.All()
	res := &Results{}
	statuses := make([]model.FeedStatus, len(feeds))

	var g errgroup.Group
	for i, f := range feeds {
		slot := res.slot(f.Name())
		g.Go(func() error {
			statuses[i] = r.fetch(ctx, f, bbl, slot)
			return nil
		})
	}
	_ = g.Wait()
	return res, statuses
}

func (r *Resolver) fetch(ctx context.Context, f feed.Feed, bbl model.BBL, slot *[]socrata.Record) model.FeedStatus {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	recs, err := resilience.Call(cctx, r.breakers.Get(f.Name()), func(ctx context.Context) ([]socrata.Record, error) {
		return f.Fetch(ctx, bbl)
	})
	elapsed := time.Since(start)

	status := model.FeedStatus{Feed: f.Name(), DurationMs: elapsed.Milliseconds()}
	outcome := classify(err)
	r.metrics.ObserveFeed(f.Name(), outcome, elapsed)
	if err != nil {
		zap.L().Warn("lookup: feed failed",
			zap.String("feed", f.Name()),
			zap.String("bbl", bbl.String()),
			zap.String("outcome", outcome),
			zap.Bool("transient", resilience.IsTransient(err)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		status.Error = err.Error()
		return status
	}

	if slot != nil {
		*slot = recs
	}
	status.Records = len(recs)
	return status
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, resilience.ErrCircuitOpen):
		return OutcomeCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

func anyOK(statuses []model.FeedStatus) bool {
	for _, s := range statuses {
		if s.OK() {
			return true
		}
	}
	return false
}

// areaFor returns the locality hints shared by every enrichment query.
func areaFor(report *model.Report) provider.Person {
	city := report.BBL.Borough.Name()
	if report.BBL.Borough == model.Manhattan {
		city = "NEW YORK"
	}
	return provider.Person{Address: report.Address, City: city, State: "NY"}
}
