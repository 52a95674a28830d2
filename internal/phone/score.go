package phone

import (
	"fmt"
	"sort"
	"time"

	"github.com/sells-group/owner-resolver/internal/match"
	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/normalize"
)

const (
	baseScore         = 50
	maxScore          = 100
	maxExtraSightings = 3
)

// Evidence is the registry and tax-roll context phone groups are scored
// against.
type Evidence struct {
	// IndividualOwners are registered individual-owner and head-officer names.
	IndividualOwners []string
	// CorporateOwners are registered corporate-owner names.
	CorporateOwners []string
	TaxRollOwner    string
	// Now is the evaluation time for recency rules.
	Now time.Time
}

// rule is one scoring step. It returns the delta and reason to record and
// whether anything is recorded at all.
type rule struct {
	name  string
	apply func(g model.PhoneGroup, ev Evidence) (delta int, reason string, ok bool)
}

// rules run in this order; reasons are appended in the same order.
var rules = []rule{
	{name: "owner_role", apply: ownerRole},
	{name: "name_match", apply: nameMatch},
	{name: "recency", apply: recency},
	{name: "repeat", apply: repeatSightings},
}

func ownerRole(g model.PhoneGroup, _ Evidence) (int, string, bool) {
	for _, m := range g.Members {
		if m.IsOwnerRole {
			return 20, "Listed as owner phone on a filing", true
		}
	}
	return 0, "Applicant/contractor phone", true
}

// nameMatch awards the individual-owner match or, failing that, the
// corporate/tax-roll substring match.
func nameMatch(g model.PhoneGroup, ev Evidence) (int, string, bool) {
	for _, m := range g.Members {
		for _, owner := range ev.IndividualOwners {
			if match.SameName(m.Name, owner) {
				return 25, fmt.Sprintf("Name %q matches registered owner %q", m.Name, owner), true
			}
		}
	}
	corporate := ev.CorporateOwners
	if ev.TaxRollOwner != "" {
		corporate = append(corporate[:len(corporate):len(corporate)], ev.TaxRollOwner)
	}
	for _, m := range g.Members {
		for _, owner := range corporate {
			if match.SubstringEither(m.Name, owner) {
				return 15, fmt.Sprintf("Name %q matches owning entity %q", m.Name, owner), true
			}
		}
	}
	return 0, "", false
}

func recency(g model.PhoneGroup, ev Evidence) (int, string, bool) {
	latest, ok := latestDate(g.Members)
	if !ok {
		return 0, "", false
	}
	switch {
	case latest.After(ev.Now.AddDate(-2, 0, 0)):
		return 15, fmt.Sprintf("Active within 2 years (%s)", latest.Format("2006-01-02")), true
	case latest.After(ev.Now.AddDate(-5, 0, 0)):
		return 10, fmt.Sprintf("Active within 5 years (%s)", latest.Format("2006-01-02")), true
	}
	return 0, "", false
}

func repeatSightings(g model.PhoneGroup, _ Evidence) (int, string, bool) {
	extra := min(len(g.Members)-1, maxExtraSightings)
	if extra <= 0 {
		return 0, "", false
	}
	return extra * 10, fmt.Sprintf("Appears on %d filings", len(g.Members)), true
}

func latestDate(members []model.RawContactEntry) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, m := range members {
		t, ok := normalize.ParseDate(m.EventDate)
		if !ok {
			continue
		}
		if !found || t.After(latest) {
			latest, found = t, true
		}
	}
	return latest, found
}

// Score evaluates every rule against g and returns the clamped score with
// one reason per rule that fired.
func Score(g model.PhoneGroup, ev Evidence) (int, []string) {
	score := baseScore
	var reasons []string
	for _, r := range rules {
		delta, reason, ok := r.apply(g, ev)
		if !ok {
			continue
		}
		score += delta
		reasons = append(reasons, reason)
	}
	return clamp(score), reasons
}

func clamp(v int) int {
	return max(0, min(v, maxScore))
}

// Rank groups entries, scores each group, sorts them by descending score
// (stable on ties) and flags the top group primary.
func Rank(entries []model.RawContactEntry, ev Evidence) []model.PhoneGroup {
	if ev.Now.IsZero() {
		ev.Now = time.Now()
	}
	groups := Group(entries)
	for i := range groups {
		groups[i].Score, groups[i].Reasons = Score(groups[i], ev)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Score > groups[j].Score
	})
	if len(groups) > 0 {
		groups[0].IsPrimary = true
	}
	return groups
}
