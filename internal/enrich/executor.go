package enrich

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/owner-resolver/internal/enrich/provider"
	"github.com/sells-group/owner-resolver/internal/model"
)

// Executor backfills contact details from the configured provider chains.
type Executor struct {
	cfg      *Config
	registry *provider.Registry
	now      time.Time // injectable for testing
}

// NewExecutor creates an enrichment executor.
func NewExecutor(cfg *Config, registry *provider.Registry) *Executor {
	if cfg == nil {
		cfg = Default()
	}
	return &Executor{
		cfg:      cfg,
		registry: registry,
	}
}

// WithNow sets a fixed time for testing.
func (e *Executor) WithNow(t time.Time) *Executor {
	e.now = t
	return e
}

// task is one planned provider call for one contact.
type task struct {
	index  int
	fields []string
	prov   provider.Provider
	person provider.Person
	cost   float64
}

// outcome is a task's disjoint result slot.
type outcome struct {
	result *provider.QueryResult
	err    error
}

// Backfill looks up the top-ranked contacts missing a phone or email and
// fills the gaps with values whose decayed confidence meets the field
// threshold. Calls run concurrently, each under its own timeout; a failed
// call leaves its contact unchanged. area supplies locality hints shared
// by every lookup. contacts is not modified.
func (e *Executor) Backfill(ctx context.Context, contacts []model.RankedContact, area provider.Person) ([]model.RankedContact, model.EnrichmentSummary) {
	out := make([]model.RankedContact, len(contacts))
	copy(out, contacts)

	var summary model.EnrichmentSummary
	if e.registry == nil {
		return out, summary
	}

	tasks := e.plan(out, area)
	summary.Attempted = len(tasks)
	if len(tasks) == 0 {
		return out, summary
	}

	timeout := time.Duration(e.cfg.Defaults.TimeoutSecs) * time.Second
	outcomes := make([]outcome, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			qr, err := t.prov.Query(cctx, t.person, t.fields)
			outcomes[i] = outcome{result: qr, err: err}
			return nil
		})
	}
	_ = g.Wait()

	now := e.now
	if now.IsZero() {
		now = time.Now()
	}
	for i, t := range tasks {
		o := outcomes[i]
		if o.err != nil {
			zap.L().Warn("enrich: provider query failed",
				zap.String("provider", t.prov.Name()),
				zap.String("contact", t.person.Name),
				zap.Error(o.err),
			)
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s: %v", t.prov.Name(), t.person.Name, o.err))
			continue
		}
		if o.result == nil {
			continue
		}
		summary.CostUSD += o.result.CostUSD
		if e.apply(&out[t.index], o.result, now) {
			summary.Backfilled++
		}
	}
	return out, summary
}

// plan selects up to MaxContacts contacts missing a field, picks the first
// registered provider in the field's chain, and reserves its cost against
// the budget in rank order.
func (e *Executor) plan(contacts []model.RankedContact, area provider.Person) []task {
	budget := e.cfg.Defaults.MaxCostUSD
	spent := 0.0
	var tasks []task
	considered := 0
	for i, c := range contacts {
		if considered >= e.cfg.Defaults.MaxContacts {
			break
		}
		missing := missingFields(c)
		if len(missing) == 0 || c.Name == "" {
			continue
		}
		considered++

		prov := e.providerFor(missing)
		if prov == nil {
			continue
		}
		var fields []string
		for _, f := range missing {
			if prov.CanProvide(f) {
				fields = append(fields, f)
			}
		}

		cost := prov.CostPerQuery(fields)
		if spent+cost > budget {
			zap.L().Info("enrich: budget exhausted",
				zap.String("provider", prov.Name()),
				zap.Float64("cost", cost),
				zap.Float64("spent", spent),
				zap.Float64("budget", budget),
			)
			continue
		}
		spent += cost

		tasks = append(tasks, task{index: i, fields: fields, prov: prov, person: personFor(c, area), cost: cost})
	}
	return tasks
}

func missingFields(c model.RankedContact) []string {
	var fields []string
	if c.Phone == "" {
		fields = append(fields, FieldPhone)
	}
	if c.Email == "" {
		fields = append(fields, FieldEmail)
	}
	return fields
}

// providerFor returns the first registered provider in any missing field's
// chain that can supply that field.
func (e *Executor) providerFor(fields []string) provider.Provider {
	for _, f := range fields {
		for _, src := range e.cfg.GetFieldConfig(f).Sources {
			p := e.registry.Get(src.Name)
			if p != nil && p.CanProvide(f) {
				return p
			}
		}
	}
	return nil
}

func personFor(c model.RankedContact, area provider.Person) provider.Person {
	p := area
	p.Name = c.Name
	if c.Address != "" {
		p.Address = c.Address
	}
	if c.Role == model.RoleCorporateOwner || c.Role == model.RoleManagingAgent {
		p.Company = c.Name
	}
	return p
}

// apply fills empty fields on c from qr. It reports whether anything was
// filled.
func (e *Executor) apply(c *model.RankedContact, qr *provider.QueryResult, now time.Time) bool {
	filled := false
	for _, fr := range qr.Fields {
		fc := e.cfg.GetFieldConfig(fr.Field)
		decay := fc.TimeDecay
		if decay == nil {
			decay = &e.cfg.Defaults.TimeDecay
		}
		if EffectiveConfidence(fr.Confidence, fr.DataAsOf, now, *decay) < fc.ConfidenceThreshold {
			continue
		}
		switch fr.Field {
		case FieldPhone:
			if c.Phone == "" && fr.Value != "" {
				c.Phone = fr.Value
				filled = true
			}
		case FieldEmail:
			if c.Email == "" && fr.Value != "" {
				c.Email = fr.Value
				filled = true
			}
		}
	}
	return filled
}

const defaultHalfLifeDays = 365

// EffectiveConfidence discounts a provider's confidence by the age of the
// value: one halving per HalfLifeDays, bottoming out at Floor. Undated and
// future-dated values keep their raw confidence.
func EffectiveConfidence(raw float64, asOf *time.Time, now time.Time, d DecayConfig) float64 {
	switch {
	case raw <= 0:
		return 0
	case asOf == nil || asOf.IsZero() || !now.After(*asOf):
		return raw
	}

	halfLife := d.HalfLifeDays
	if halfLife <= 0 {
		halfLife = defaultHalfLifeDays
	}
	halvings := now.Sub(*asOf).Hours() / 24 / float64(halfLife)
	return max(d.Floor, raw*math.Exp2(-halvings))
}
