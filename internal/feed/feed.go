// Package feed binds each upstream public-record dataset to a property
// filter. Feeds return raw records; interpreting them is the normalize
// package's job.
package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

// Feed names. They double as config keys under feeds.datasets and as
// metric labels.
const (
	HPDRegistrations = "hpd_registrations"
	DOBPermits       = "dob_permits"
	DOBJobs          = "dob_jobs"
	HPDViolations    = "hpd_violations"
	HPDLitigation    = "hpd_litigation"
	ECBViolations    = "ecb_violations"
	HPDComplaints    = "hpd_complaints"
	SpeculationWatch = "speculation_watch"
	TaxRoll          = "tax_roll"
	RentStabilized   = "rent_stabilized"
)

// Feed fetches one dataset's records for a lot.
type Feed interface {
	// Name returns the feed identifier.
	Name() string
	// Source returns the tag attached to entries derived from this feed.
	Source() model.Source
	// Fetch returns the feed's records for bbl. It makes one attempt.
	Fetch(ctx context.Context, bbl model.BBL) ([]socrata.Record, error)
}

// Registry holds the configured feeds.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]Feed
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]Feed)}
}

// Register adds f, replacing any feed with the same name.
func (r *Registry) Register(f Feed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[f.Name()] = f
}

// Get returns the named feed, or nil.
func (r *Registry) Get(name string) Feed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeds[name]
}

// List returns registered feed names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.feeds))
	for name := range r.feeds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns registered feeds sorted by name.
func (r *Registry) All() []Feed {
	names := r.List()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Feed, 0, len(names))
	for _, n := range names {
		out = append(out, r.feeds[n])
	}
	return out
}
