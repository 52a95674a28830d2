// Package ownership derives a single best-guess owner from the ranked
// contact list.
package ownership

import (
	"fmt"

	"github.com/sells-group/owner-resolver/internal/match"
	"github.com/sells-group/owner-resolver/internal/model"
)

const (
	individualBase = 75
	corporateBase  = 55
	maxConfidence  = 95
)

// Evidence is the corroborating context for a candidate.
type Evidence struct {
	TaxRollOwner string
	// Respondents are litigation respondent names.
	Respondents []string
}

// corroboration is one additive confidence rule applied to the chosen
// candidate.
type corroboration struct {
	delta int
	check func(candidate model.RankedContact, contacts []model.RankedContact, ev Evidence) (string, bool)
}

var corroborations = []corroboration{
	{delta: 10, check: anyPhone},
	{delta: 10, check: namedRespondent},
	{delta: 5, check: taxRollMatch},
}

func anyPhone(_ model.RankedContact, contacts []model.RankedContact, _ Evidence) (string, bool) {
	for _, c := range contacts {
		if c.Phone != "" {
			return fmt.Sprintf("Phone on file via %s", c.Name), true
		}
	}
	return "", false
}

func namedRespondent(candidate model.RankedContact, _ []model.RankedContact, ev Evidence) (string, bool) {
	for _, r := range ev.Respondents {
		if match.ContainsToken(r, candidate.Name) {
			return fmt.Sprintf("Named in litigation as %q", r), true
		}
	}
	return "", false
}

func taxRollMatch(candidate model.RankedContact, _ []model.RankedContact, ev Evidence) (string, bool) {
	if ev.TaxRollOwner != "" && match.ContainsToken(ev.TaxRollOwner, candidate.Name) {
		return fmt.Sprintf("Tax roll owner %q corroborates", ev.TaxRollOwner), true
	}
	return "", false
}

// Resolve picks the first individual owner or head officer, else the
// first corporate owner, and corroborates it. Confidence never exceeds 95.
// With no candidate, confidence is zero and the tax-roll owner, if any,
// is surfaced as the best guess.
func Resolve(contacts []model.RankedContact, ev Evidence) model.OwnershipResolution {
	candidate, found := first(contacts, model.RoleIndividualOwner, model.RoleHeadOfficer)
	var res model.OwnershipResolution
	switch {
	case found:
		res.Confidence = individualBase
		res.Reasoning = append(res.Reasoning, fmt.Sprintf("Registered %s: %s", candidate.Role, candidate.Name))
	default:
		candidate, found = first(contacts, model.RoleCorporateOwner)
		if !found {
			return unresolved(ev)
		}
		res.Confidence = corporateBase
		res.Reasoning = append(res.Reasoning,
			fmt.Sprintf("Registered corporate owner: %s", candidate.Name),
			"Individual behind the corporate owner is unresolved")
	}
	res.BestGuessName = candidate.Name

	for _, c := range corroborations {
		if reason, ok := c.check(candidate, contacts, ev); ok {
			res.Confidence += c.delta
			res.Reasoning = append(res.Reasoning, reason)
		}
	}
	res.Confidence = min(res.Confidence, maxConfidence)
	return res
}

func first(contacts []model.RankedContact, roles ...model.Role) (model.RankedContact, bool) {
	for _, c := range contacts {
		for _, r := range roles {
			if c.Role == r {
				return c, true
			}
		}
	}
	return model.RankedContact{}, false
}

func unresolved(ev Evidence) model.OwnershipResolution {
	res := model.OwnershipResolution{Reasoning: []string{"No registered owner found"}}
	if !match.IsPlaceholder(ev.TaxRollOwner) {
		res.BestGuessName = ev.TaxRollOwner
		res.Reasoning = append(res.Reasoning, "Tax roll owner shown unverified")
	}
	return res
}
