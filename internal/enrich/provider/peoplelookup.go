package provider

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/owner-resolver/pkg/peoplelookup"
)

// PeopleLookup adapts the peoplelookup API to Provider.
type PeopleLookup struct {
	client  peoplelookup.Client
	costUSD float64
}

// NewPeopleLookup wraps client. costUSD is the flat per-query price used
// for budgeting before the call.
func NewPeopleLookup(client peoplelookup.Client, costUSD float64) *PeopleLookup {
	return &PeopleLookup{client: client, costUSD: costUSD}
}

// Name implements Provider.
func (p *PeopleLookup) Name() string { return "peoplelookup" }

// SupportedFields implements Provider.
func (p *PeopleLookup) SupportedFields() []string { return []string{FieldPhone, FieldEmail} }

// CanProvide implements Provider.
func (p *PeopleLookup) CanProvide(field string) bool {
	return slices.Contains(p.SupportedFields(), field)
}

// CostPerQuery implements Provider. The API charges per match regardless
// of the fields used.
func (p *PeopleLookup) CostPerQuery(_ []string) float64 { return p.costUSD }

// Query implements Provider. The most recently seen phone and email are
// returned, each carrying the match confidence.
func (p *PeopleLookup) Query(ctx context.Context, person Person, fields []string) (*QueryResult, error) {
	resp, err := p.client.Match(ctx, peoplelookup.MatchRequest{
		Name:    person.Name,
		Address: person.Address,
		City:    person.City,
		State:   person.State,
		Company: person.Company,
	})
	if errors.Is(err, peoplelookup.ErrNotFound) {
		return &QueryResult{Provider: p.Name()}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "provider: peoplelookup match")
	}

	qr := &QueryResult{Provider: p.Name(), CostUSD: resp.CostUSD}
	conf := resp.Person.Confidence
	if slices.Contains(fields, FieldPhone) {
		if ph, asOf, ok := newest(resp.Person.Phones, func(x peoplelookup.Phone) (string, string) { return x.Number, x.LastSeen }); ok {
			qr.Fields = append(qr.Fields, FieldResult{Field: FieldPhone, Value: ph, Confidence: conf, DataAsOf: asOf})
		}
	}
	if slices.Contains(fields, FieldEmail) {
		if em, asOf, ok := newest(resp.Person.Emails, func(x peoplelookup.Email) (string, string) { return x.Address, x.LastSeen }); ok {
			qr.Fields = append(qr.Fields, FieldResult{Field: FieldEmail, Value: em, Confidence: conf, DataAsOf: asOf})
		}
	}
	return qr, nil
}

// newest picks the item with the latest last-seen date. Items without a
// parseable date rank below dated ones but still count.
func newest[T any](items []T, get func(T) (value, lastSeen string)) (string, *time.Time, bool) {
	var best string
	var bestAt *time.Time
	found := false
	for _, it := range items {
		v, seen := get(it)
		if v == "" {
			continue
		}
		var at *time.Time
		if t, err := time.Parse("2006-01-02", seen); err == nil {
			at = &t
		}
		switch {
		case !found:
			best, bestAt, found = v, at, true
		case at != nil && (bestAt == nil || at.After(*bestAt)):
			best, bestAt = v, at
		}
	}
	return best, bestAt, found
}
