// Package distress computes the bounded motivation-to-sell score from
// pre-aggregated regulatory, legal and financial counts.
package distress

import (
	"fmt"

	"github.com/sells-group/owner-resolver/internal/model"
)

const maxScore = 100

// unitLossThreshold is the fractional drop in regulated units that counts
// as deregulation.
const unitLossThreshold = 0.30

// Rule is one additive signal.
type Rule struct {
	Name   string
	Delta  int
	Fires  func(in model.DistressInputs) bool
	Signal func(in model.DistressInputs) string
}

// Rules is the fixed rule table. Tiered rules on the same metric have
// mutually exclusive predicates.
var Rules = []Rule{
	{
		Name:   "open_violations_high",
		Delta:  20,
		Fires:  func(in model.DistressInputs) bool { return in.OpenViolations > 10 },
		Signal: func(in model.DistressInputs) string { return fmt.Sprintf("%d open HPD violations", in.OpenViolations) },
	},
	{
		Name:   "open_violations_elevated",
		Delta:  10,
		Fires:  func(in model.DistressInputs) bool { return in.OpenViolations > 5 && in.OpenViolations <= 10 },
		Signal: func(in model.DistressInputs) string { return fmt.Sprintf("%d open HPD violations", in.OpenViolations) },
	},
	{
		Name:   "hazardous_violations",
		Delta:  15,
		Fires:  func(in model.DistressInputs) bool { return in.HazardousViolations > 3 },
		Signal: func(in model.DistressInputs) string { return fmt.Sprintf("%d immediately hazardous (class C) violations", in.HazardousViolations) },
	},
	{
		Name:   "open_litigation",
		Delta:  25,
		Fires:  func(in model.DistressInputs) bool { return in.OpenLitigation > 0 },
		Signal: func(in model.DistressInputs) string { return fmt.Sprintf("%d open HPD litigation case(s)", in.OpenLitigation) },
	},
	{
		Name:   "harassment_finding",
		Delta:  20,
		Fires:  func(in model.DistressInputs) bool { return in.HarassmentFindings > 0 },
		Signal: func(in model.DistressInputs) string { return "Harassment finding against owner" },
	},
	{
		Name:   "penalties_high",
		Delta:  20,
		Fires:  func(in model.DistressInputs) bool { return in.PenaltyBalance > 10000 },
		Signal: func(in model.DistressInputs) string { return fmt.Sprintf("$%.0f in unpaid ECB penalties", in.PenaltyBalance) },
	},
	{
		Name:   "penalties_elevated",
		Delta:  10,
		Fires:  func(in model.DistressInputs) bool { return in.PenaltyBalance > 1000 && in.PenaltyBalance <= 10000 },
		Signal: func(in model.DistressInputs) string { return fmt.Sprintf("$%.0f in unpaid ECB penalties", in.PenaltyBalance) },
	},
	{
		Name:   "speculation_watch_list",
		Delta:  15,
		Fires:  func(in model.DistressInputs) bool { return in.OnWatchList },
		Signal: func(in model.DistressInputs) string { return "On the HPD speculation watch list" },
	},
	{
		Name:  "regulated_unit_loss",
		Delta: 10,
		Fires: unitLoss,
		Signal: func(in model.DistressInputs) string {
			return fmt.Sprintf("Rent-stabilized units fell from %d (%d) to %d (%d)",
				in.BaselineUnits, in.BaselineYear, in.LatestUnits, in.LatestYear)
		},
	},
	{
		Name:   "recent_complaints",
		Delta:  10,
		Fires:  func(in model.DistressInputs) bool { return in.RecentComplaints > 15 },
		Signal: func(in model.DistressInputs) string { return fmt.Sprintf("%d HPD complaints in the last 3 years", in.RecentComplaints) },
	},
}

func unitLoss(in model.DistressInputs) bool {
	if in.BaselineUnits <= 0 || in.LatestUnits <= 0 {
		return false
	}
	drop := float64(in.BaselineUnits-in.LatestUnits) / float64(in.BaselineUnits)
	return drop >= unitLossThreshold
}

// Score applies every rule to in. It has no side effects.
func Score(in model.DistressInputs) model.DistressScore {
	total := 0
	var signals []string
	for _, r := range Rules {
		if !r.Fires(in) {
			continue
		}
		total += r.Delta
		signals = append(signals, r.Signal(in))
	}
	return model.DistressScore{Total: max(0, min(total, maxScore)), Signals: signals}
}
