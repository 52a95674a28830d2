package lookup

import (
	"time"

	"github.com/sells-group/owner-resolver/internal/contact"
	"github.com/sells-group/owner-resolver/internal/distress"
	"github.com/sells-group/owner-resolver/internal/feed"
	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/normalize"
	"github.com/sells-group/owner-resolver/internal/ownership"
	"github.com/sells-group/owner-resolver/internal/phone"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

// Results holds the raw records of one lookup, one slot per feed. A feed
// that failed or was not configured leaves its slot nil.
type Results struct {
	Registrations  []socrata.Record
	Permits        []socrata.Record
	JobFilings     []socrata.Record
	Violations     []socrata.Record
	Litigation     []socrata.Record
	ECBViolations  []socrata.Record
	Complaints     []socrata.Record
	WatchList      []socrata.Record
	TaxRoll        []socrata.Record
	RentStabilized []socrata.Record
}

// slot returns the field a feed writes into, or nil for an unknown feed.
func (r *Results) slot(name string) *[]socrata.Record {
	switch name {
	case feed.HPDRegistrations:
		return &r.Registrations
	case feed.DOBPermits:
		return &r.Permits
	case feed.DOBJobs:
		return &r.JobFilings
	case feed.HPDViolations:
		return &r.Violations
	case feed.HPDLitigation:
		return &r.Litigation
	case feed.ECBViolations:
		return &r.ECBViolations
	case feed.HPDComplaints:
		return &r.Complaints
	case feed.SpeculationWatch:
		return &r.WatchList
	case feed.TaxRoll:
		return &r.TaxRoll
	case feed.RentStabilized:
		return &r.RentStabilized
	default:
		return nil
	}
}

// Aggregate derives the phone ranking, contact ranking, ownership
// resolution and distress score from res. It never fails; empty slots
// yield empty sections.
func Aggregate(bbl model.BBL, res *Results, now time.Time) *model.Report {
	regs := normalize.Registrations(res.Registrations)
	entries := append(normalize.Permits(res.Permits), normalize.JobFilings(res.JobFilings)...)
	lot := normalize.TaxRoll(res.TaxRoll)

	phones := phone.Rank(entries, phone.Evidence{
		IndividualOwners: normalize.NamesByRole(regs, model.RoleIndividualOwner, model.RoleHeadOfficer),
		CorporateOwners:  normalize.NamesByRole(regs, model.RoleCorporateOwner),
		TaxRollOwner:     lot.Owner,
		Now:              now,
	})
	contacts := contact.Rank(entries, regs)

	lit := normalize.Litigation(res.Litigation)
	owner := ownership.Resolve(contacts, ownership.Evidence{
		TaxRollOwner: lot.Owner,
		Respondents:  lit.Respondents,
	})

	inputs := Inputs(res, now)
	report := &model.Report{
		BBL:          bbl,
		Address:      lot.Address,
		TaxRollOwner: lot.Owner,
		Phones:       phones,
		Contacts:     contacts,
		Ownership:    owner,
		Distress:     distress.Score(inputs),
		Inputs:       inputs,
		GeneratedAt:  now.UTC(),
	}
	if report.Phones == nil {
		report.Phones = []model.PhoneGroup{}
	}
	if report.Contacts == nil {
		report.Contacts = []model.RankedContact{}
	}
	return report
}

// Inputs builds the distress inputs from the signal feeds.
func Inputs(res *Results, now time.Time) model.DistressInputs {
	vc := normalize.Violations(res.Violations)
	lit := normalize.Litigation(res.Litigation)
	units := normalize.RentStabilized(res.RentStabilized)
	return model.DistressInputs{
		OpenViolations:      vc.Open,
		HazardousViolations: vc.Hazardous,
		OpenLitigation:      lit.Open,
		HarassmentFindings:  lit.Harassment,
		PenaltyBalance:      normalize.PenaltyBalance(res.ECBViolations),
		OnWatchList:         normalize.OnWatchList(res.WatchList),
		BaselineUnits:       units.BaselineUnits,
		BaselineYear:        units.BaselineYear,
		LatestUnits:         units.LatestUnits,
		LatestYear:          units.LatestYear,
		RecentComplaints:    normalize.RecentComplaints(res.Complaints, now),
	}
}
