package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/sells-group/owner-resolver/internal/match"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

// ViolationCounts summarizes HPD housing-code violations.
type ViolationCounts struct {
	Open      int `json:"open"`
	Hazardous int `json:"hazardous"`
}

// Violations counts open violations and open class C (immediately
// hazardous) violations.
func Violations(records []socrata.Record) ViolationCounts {
	var vc ViolationCounts
	for _, r := range records {
		if !isOpen(r.First("violationstatus", "currentstatus")) {
			continue
		}
		vc.Open++
		if strings.EqualFold(r.String("class"), "C") {
			vc.Hazardous++
		}
	}
	return vc
}

func isOpen(status string) bool {
	s := strings.ToUpper(strings.TrimSpace(status))
	return s == "OPEN" || s == "ACTIVE" || strings.HasPrefix(s, "OPEN ")
}

// LitigationSummary summarizes HPD housing litigation cases.
type LitigationSummary struct {
	Open        int      `json:"open"`
	Harassment  int      `json:"harassment"`
	Respondents []string `json:"respondents,omitempty"`
}

// Litigation counts open cases and harassment findings and collects the
// respondent names. Multi-party respondent fields are split on ";".
func Litigation(records []socrata.Record) LitigationSummary {
	var ls LitigationSummary
	for _, r := range records {
		if isOpen(r.String("casestatus")) || strings.EqualFold(r.String("casestatus"), "PENDING") {
			ls.Open++
		}
		if hasFinding(r.String("findingofharassment")) {
			ls.Harassment++
		}
		for _, name := range strings.Split(r.String("respondent"), ";") {
			if name = strings.TrimSpace(name); !match.IsPlaceholder(name) {
				ls.Respondents = append(ls.Respondents, name)
			}
		}
	}
	return ls
}

// hasFinding treats any non-placeholder, non-negative value as a finding
// ("After Trial", "After Inquest", "Yes").
func hasFinding(v string) bool {
	if match.IsPlaceholder(v) {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "NO", "N", "FALSE", "0":
		return false
	}
	return true
}

// PenaltyBalance sums outstanding ECB/OATH balances; malformed amounts
// count as zero.
func PenaltyBalance(records []socrata.Record) float64 {
	total := 0.0
	for _, r := range records {
		if due := r.Float("balance_due"); due > 0 {
			total += due
		}
	}
	return total
}

// complaintWindowYears is how far back a complaint counts as recent.
const complaintWindowYears = 3

// RecentComplaints counts complaints received within three years of now.
// Rows with unparseable dates are skipped.
func RecentComplaints(records []socrata.Record, now time.Time) int {
	cutoff := now.AddDate(-complaintWindowYears, 0, 0)
	n := 0
	for _, r := range records {
		t, ok := ParseDate(r.First("received_date", "receiveddate", "created_date"))
		if !ok {
			continue
		}
		if !t.Before(cutoff) && !t.After(now) {
			n++
		}
	}
	return n
}

// OnWatchList reports whether the speculation watch list has any row for
// the lot.
func OnWatchList(records []socrata.Record) bool {
	return len(records) > 0
}

// TaxLot is the tax-roll view of a lot.
type TaxLot struct {
	Owner            string `json:"owner,omitempty"`
	Address          string `json:"address,omitempty"`
	ResidentialUnits int    `json:"residential_units"`
}

// TaxRoll takes the first row with an owner name.
func TaxRoll(records []socrata.Record) TaxLot {
	for _, r := range records {
		owner := r.String("ownername")
		if match.IsPlaceholder(owner) {
			continue
		}
		return TaxLot{
			Owner:            owner,
			Address:          r.String("address"),
			ResidentialUnits: r.Int("unitsres"),
		}
	}
	return TaxLot{}
}

// UnitHistory is the earliest and latest known regulated-unit counts.
type UnitHistory struct {
	BaselineYear  int `json:"baseline_year"`
	BaselineUnits int `json:"baseline_units"`
	LatestYear    int `json:"latest_year"`
	LatestUnits   int `json:"latest_units"`
}

// RentStabilized reduces per-year unit counts to the earliest and latest
// years. Rows missing a year are ignored; a missing count is zero.
func RentStabilized(records []socrata.Record) UnitHistory {
	type point struct{ year, units int }
	var pts []point
	for _, r := range records {
		y := r.Int("year")
		if y <= 0 {
			continue
		}
		pts = append(pts, point{year: y, units: r.Int("uc")})
	}
	if len(pts) == 0 {
		return UnitHistory{}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].year < pts[j].year })
	first, last := pts[0], pts[len(pts)-1]
	return UnitHistory{
		BaselineYear:  first.year,
		BaselineUnits: first.units,
		LatestYear:    last.year,
		LatestUnits:   last.units,
	}
}
