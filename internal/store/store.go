// Package store persists lookup reports as an append-mostly audit log.
// Stored reports are history only; nothing reads them back into scoring.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/owner-resolver/internal/model"
)

// ErrNotFound is returned when a lookup ID is unknown.
var ErrNotFound = eris.New("store: lookup not found")

// defaultListLimit caps ListLookups when no limit is given.
const defaultListLimit = 100

// LookupFilter specifies criteria for listing lookups.
type LookupFilter struct {
	BBL    string `json:"bbl,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// LookupRecord is the summary row of a stored lookup.
type LookupRecord struct {
	ID            string    `json:"id"`
	BBL           string    `json:"bbl"`
	BestGuessName string    `json:"best_guess_name"`
	Confidence    int       `json:"confidence"`
	Distress      int       `json:"distress"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store defines the persistence interface for lookup history.
type Store interface {
	// SaveLookup stores report, assigning an ID when it has none.
	SaveLookup(ctx context.Context, report *model.Report) error
	// GetLookup returns the full stored report.
	GetLookup(ctx context.Context, id string) (*model.Report, error)
	// ListLookups returns summaries, newest first.
	ListLookups(ctx context.Context, filter LookupFilter) ([]LookupRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// recordOf extracts the summary columns of report.
func recordOf(report *model.Report) LookupRecord {
	created := report.GeneratedAt
	if created.IsZero() {
		created = time.Now()
	}
	return LookupRecord{
		ID:            report.ID,
		BBL:           report.BBL.String(),
		BestGuessName: report.Ownership.BestGuessName,
		Confidence:    report.Ownership.Confidence,
		Distress:      report.Distress.Total,
		CreatedAt:     created.UTC(),
	}
}

func limitOf(filter LookupFilter) int {
	if filter.Limit <= 0 {
		return defaultListLimit
	}
	return filter.Limit
}
