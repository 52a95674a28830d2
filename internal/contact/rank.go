// Package contact merges named sightings from filings and registrations
// into one priority-tiered, deduplicated contact list.
package contact

import (
	"sort"
	"strings"

	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/phone"
)

// Tier scores.
const (
	ScoreFilingWithPhone    = 90
	ScoreIndividualOwner    = 75
	ScoreManager            = 65
	ScoreCorporateOwner     = 55
	ScoreFilingWithoutPhone = 40
)

// tier accepts candidates and drops any whose key it has already seen.
// Each tier keeps its own key set.
type tier struct {
	seen map[string]bool
	out  []model.RankedContact
}

func newTier() *tier {
	return &tier{seen: make(map[string]bool)}
}

func (t *tier) add(key string, c model.RankedContact) {
	if key == "" || t.seen[key] {
		return
	}
	t.seen[key] = true
	t.out = append(t.out, c)
}

func nameKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Rank builds the contact list from filing entries and registration
// contacts. Only owner-role entries with a usable phone reach the top tier. Tiers are evaluated in fixed order and deduplicate only within
// themselves, so one person can appear once per tier. The result is
// sorted by descending score, stable within a score.
func Rank(entries []model.RawContactEntry, regs []model.RegistrationContact) []model.RankedContact {
	withPhone, individuals, managers, corporate, withoutPhone := newTier(), newTier(), newTier(), newTier(), newTier()

	for _, e := range entries {
		if !e.IsOwnerRole {
			continue
		}
		if n := phone.Normalize(e.Phone); n != "" {
			withPhone.add(n, model.RankedContact{
				Name:    e.Name,
				Phone:   e.Phone,
				Role:    model.RoleOwnerApplicant,
				Source:  e.Source,
				Score:   ScoreFilingWithPhone,
				Address: e.Address,
			})
		}
	}

	for _, r := range regs {
		switch r.Role {
		case model.RoleIndividualOwner, model.RoleHeadOfficer:
			name := r.FullName()
			individuals.add(nameKey(name), registered(r, name, r.Role, ScoreIndividualOwner))
		case model.RoleSiteManager, model.RoleManagingAgent:
			name := r.FullName()
			if name == "" {
				name = r.CorporationName
			}
			managers.add(nameKey(name), registered(r, name, r.Role, ScoreManager))
		case model.RoleCorporateOwner:
			corporate.add(nameKey(r.CorporationName), registered(r, r.CorporationName, model.RoleCorporateOwner, ScoreCorporateOwner))
		}
	}

	// Applicants and permittees land here even when they list a phone; only
	// the owner side of a filing is trusted as an owner number.
	for _, e := range entries {
		if !e.IsOwnerRole || phone.Normalize(e.Phone) == "" {
			withoutPhone.add(nameKey(e.Name), model.RankedContact{
				Name:    e.Name,
				Role:    model.RolePermitApplicant,
				Source:  e.Source,
				Score:   ScoreFilingWithoutPhone,
				Address: e.Address,
			})
		}
	}

	var all []model.RankedContact
	for _, t := range []*tier{withPhone, individuals, managers, corporate, withoutPhone} {
		all = append(all, t.out...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	return all
}

func registered(r model.RegistrationContact, name string, role model.Role, score int) model.RankedContact {
	return model.RankedContact{
		Name:    name,
		Role:    role,
		Source:  model.SourceHPDRegistration,
		Score:   score,
		Address: r.Address,
	}
}
