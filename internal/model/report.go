package model

import "time"

// OwnershipResolution is the best-guess owner identity for a lot.
type OwnershipResolution struct {
	BestGuessName string   `json:"best_guess_name"`
	Confidence    int      `json:"confidence"`
	Reasoning     []string `json:"reasoning"`
}

// DistressInputs are the counts and flags aggregated during the fetch phase.
type DistressInputs struct {
	OpenViolations      int     `json:"open_violations"`
	HazardousViolations int     `json:"hazardous_violations"`
	OpenLitigation      int     `json:"open_litigation"`
	HarassmentFindings  int     `json:"harassment_findings"`
	PenaltyBalance      float64 `json:"penalty_balance"`
	OnWatchList         bool    `json:"on_watch_list"`
	// Regulated-unit counts for the earliest and latest known years.
	BaselineUnits    int `json:"baseline_units"`
	BaselineYear     int `json:"baseline_year,omitempty"`
	LatestUnits      int `json:"latest_units"`
	LatestYear       int `json:"latest_year,omitempty"`
	RecentComplaints int `json:"recent_complaints"`
}

// DistressScore is the bounded 0-100 motivation-to-sell estimate.
type DistressScore struct {
	Total   int      `json:"total"`
	Signals []string `json:"signals"`
}

// FeedStatus records how a single feed fared during a lookup.
type FeedStatus struct {
	Feed       string `json:"feed"`
	Records    int    `json:"records"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// OK reports whether the feed contributed data without error.
func (f FeedStatus) OK() bool {
	return f.Error == ""
}

// EnrichmentSummary records the outcome of third-party backfill lookups.
type EnrichmentSummary struct {
	Attempted  int      `json:"attempted"`
	Backfilled int      `json:"backfilled"`
	CostUSD    float64  `json:"cost_usd"`
	Errors     []string `json:"errors,omitempty"`
}

// Report is the full best-effort result of one property lookup.
type Report struct {
	ID           string              `json:"id,omitempty"`
	BBL          BBL                 `json:"bbl"`
	Address      string              `json:"address,omitempty"`
	TaxRollOwner string              `json:"tax_roll_owner,omitempty"`
	Phones       []PhoneGroup        `json:"phones"`
	Contacts     []RankedContact     `json:"contacts"`
	Ownership    OwnershipResolution `json:"ownership"`
	Distress     DistressScore       `json:"distress"`
	Inputs       DistressInputs      `json:"distress_inputs"`
	Feeds        []FeedStatus        `json:"feeds"`
	Enrichment   *EnrichmentSummary  `json:"enrichment,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// PrimaryPhone returns the "call first" group, or nil when there is none.
func (r *Report) PrimaryPhone() *PhoneGroup {
	for i := range r.Phones {
		if r.Phones[i].IsPrimary {
			return &r.Phones[i]
		}
	}
	return nil
}
