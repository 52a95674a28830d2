// Package provider defines the person lookup providers used for contact
// backfill.
package provider

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fields a provider can supply.
const (
	FieldPhone = "phone"
	FieldEmail = "email"
)

// Person identifies who to look up.
type Person struct {
	Name    string
	Address string
	City    string
	State   string
	Company string
}

// FieldResult is a single field value returned by a provider.
type FieldResult struct {
	Field      string     `json:"field"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	DataAsOf   *time.Time `json:"data_as_of,omitempty"`
}

// QueryResult is the complete response from a provider.
type QueryResult struct {
	Provider string        `json:"provider"`
	Fields   []FieldResult `json:"fields"`
	CostUSD  float64       `json:"cost_usd"`
}

// Provider defines the interface for person lookup providers.
type Provider interface {
	// Name returns the provider identifier used in the enrich config.
	Name() string
	// SupportedFields returns the fields this provider can supply.
	SupportedFields() []string
	// CanProvide checks if the provider can supply a specific field.
	CanProvide(field string) bool
	// CostPerQuery estimates cost for querying specific fields.
	CostPerQuery(fields []string) float64
	// Query looks up a person. A provider with no match returns an empty
	// result, not an error.
	Query(ctx context.Context, person Person, fields []string) (*QueryResult, error)
}

// Registry manages available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
