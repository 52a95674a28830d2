package normalize

import (
	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

// Permits converts DOB permit issuance rows. Each row yields an owner-role
// entry for the owner fields and an applicant entry for the permittee.
func Permits(records []socrata.Record) []model.RawContactEntry {
	var out []model.RawContactEntry
	for _, r := range records {
		date := r.First("issuance_date", "filing_date", "job_start_date")

		owner := OwnerName(r.String("owner_s_business_name"), r.String("owner_s_first_name"), r.String("owner_s_last_name"))
		addr := joinAddress(r.String("owner_s_house__"), r.String("owner_s_house_street_name"), r.String("city"), r.String("state"), r.String("owner_s_zip_code"))
		if e, ok := newEntry(owner, r.String("owner_s_phone__"), true, date, model.SourceDOBPermit, addr); ok {
			out = append(out, e)
		}

		permittee := OwnerName(r.String("permittee_s_business_name"), r.String("permittee_s_first_name"), r.String("permittee_s_last_name"))
		if e, ok := newEntry(permittee, r.String("permittee_s_phone__"), false, date, model.SourceDOBPermit, ""); ok {
			out = append(out, e)
		}
	}
	return out
}

// JobFilings converts DOB job application rows. Only the owner side
// carries a phone in this dataset; the applicant is kept without one.
func JobFilings(records []socrata.Record) []model.RawContactEntry {
	var out []model.RawContactEntry
	for _, r := range records {
		date := r.First("latest_action_date", "pre__filing_date", "dobrundate")

		owner := OwnerName(r.String("owner_s_business_name"), r.String("owner_s_first_name"), r.String("owner_s_last_name"))
		addr := joinAddress(r.String("owner_s_house_number"), r.String("owner_shouse_street_name"), r.String("city_"), r.String("state"), r.String("zip"))
		if e, ok := newEntry(owner, r.First("owner_sphone__", "owner_s_phone__"), true, date, model.SourceDOBJob, addr); ok {
			out = append(out, e)
		}

		applicant := model.JoinName(cleanToken(r.String("applicant_s_first_name")), cleanToken(r.String("applicant_s_last_name")))
		if e, ok := newEntry(applicant, "", false, date, model.SourceDOBJob, ""); ok {
			out = append(out, e)
		}
	}
	return out
}
