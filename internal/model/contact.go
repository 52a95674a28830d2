package model

import "strings"

// Source tags the upstream feed a record came from.
type Source string

const (
	SourceHPDRegistration Source = "hpd_registration"
	SourceDOBPermit       Source = "dob_permit"
	SourceDOBJob          Source = "dob_job"
	SourceHPDViolation    Source = "hpd_violation"
	SourceHPDLitigation   Source = "hpd_litigation"
	SourceECBViolation    Source = "ecb_violation"
	SourceHPDComplaint    Source = "hpd_complaint"
	SourceSpeculation     Source = "speculation_watch"
	SourceTaxRoll         Source = "tax_roll"
	SourceRentStabilized  Source = "rent_stabilized"
	SourceEnrichment      Source = "enrichment"
)

// Role is the closed set of contact roles every vendor tag is mapped onto.
type Role string

const (
	RoleOwnerApplicant  Role = "Owner/Applicant"
	RoleIndividualOwner Role = "Individual Owner"
	RoleHeadOfficer     Role = "Head Officer"
	RoleSiteManager     Role = "Site Manager"
	RoleManagingAgent   Role = "Managing Agent"
	RoleCorporateOwner  Role = "Corporate Owner"
	RolePermitApplicant Role = "Permit Applicant"
	// RoleOther covers registration contact types with no ranking tier
	// (officers, shareholders, lessees).
	RoleOther Role = "Other"
)

// IsIndividual reports whether the role names a natural person who owns
// or heads the owning entity.
func (r Role) IsIndividual() bool {
	return r == RoleIndividualOwner || r == RoleHeadOfficer
}

// RawContactEntry is one name/phone sighting from a single filing.
type RawContactEntry struct {
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	IsOwnerRole bool   `json:"is_owner_role"`
	EventDate   string `json:"event_date,omitempty"`
	Source      Source `json:"source"`
	Address     string `json:"address,omitempty"`
}

// RegistrationContact is a normalized HPD registration contact.
type RegistrationContact struct {
	Role            Role   `json:"role"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	CorporationName string `json:"corporation_name,omitempty"`
	Address         string `json:"address,omitempty"`
	RegistrationID  string `json:"registration_id,omitempty"`
}

// FullName returns the trimmed, space-joined first and last name.
func (c RegistrationContact) FullName() string {
	return JoinName(c.FirstName, c.LastName)
}

// PhoneGroup is every sighting of one normalized phone number.
type PhoneGroup struct {
	NormalizedPhone string            `json:"normalized_phone"`
	DisplayPhone    string            `json:"display_phone"`
	Members         []RawContactEntry `json:"members"`
	Score           int               `json:"score"`
	Reasons         []string          `json:"reasons"`
	IsPrimary       bool              `json:"is_primary"`
}

// RankedContact is one deduplicated, role-tagged contact.
type RankedContact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Role    Role   `json:"role"`
	Source  Source `json:"source"`
	Score   int    `json:"score"`
	Address string `json:"address,omitempty"`
}

// JoinName trims and space-joins first and last name tokens.
func JoinName(first, last string) string {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
