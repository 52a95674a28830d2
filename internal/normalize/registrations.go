package normalize

import (
	"strings"

	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

// hpdRoles maps HPD registration contact types onto the closed role set.
// Keys are lower-cased with spaces removed.
var hpdRoles = map[string]model.Role{
	"individualowner": model.RoleIndividualOwner,
	"jointowner":      model.RoleIndividualOwner,
	"headofficer":     model.RoleHeadOfficer,
	"corporateowner":  model.RoleCorporateOwner,
	"sitemanager":     model.RoleSiteManager,
	"agent":           model.RoleManagingAgent,
	"managingagent":   model.RoleManagingAgent,
}

// RoleFor maps a vendor contact type to a Role. Unknown types map to
// RoleOther so downstream code never switches on raw strings.
func RoleFor(contactType string) model.Role {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(contactType), " ", ""))
	if r, ok := hpdRoles[key]; ok {
		return r
	}
	return model.RoleOther
}

// Registrations converts HPD registration contact rows.
func Registrations(records []socrata.Record) []model.RegistrationContact {
	out := make([]model.RegistrationContact, 0, len(records))
	for _, r := range records {
		c := model.RegistrationContact{
			Role:            RoleFor(r.String("type")),
			FirstName:       cleanToken(r.String("firstname")),
			LastName:        cleanToken(r.String("lastname")),
			CorporationName: cleanToken(r.String("corporationname")),
			RegistrationID:  r.String("registrationid"),
			Address: joinAddress(
				r.String("businesshousenumber"),
				r.String("businessstreetname"),
				r.String("businessapartment"),
				r.String("businesscity"),
				r.String("businessstate"),
				r.String("businesszip"),
			),
		}
		if c.FullName() == "" && c.CorporationName == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// RegistrationIDs extracts distinct registration ids from building
// registration rows, preserving order.
func RegistrationIDs(records []socrata.Record) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range records {
		id := r.String("registrationid")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// NamesByRole returns the display names of contacts with one of roles.
// Corporate contacts fall back to the corporation name.
func NamesByRole(contacts []model.RegistrationContact, roles ...model.Role) []string {
	want := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}
	var names []string
	for _, c := range contacts {
		if !want[c.Role] {
			continue
		}
		name := c.FullName()
		if c.Role == model.RoleCorporateOwner || name == "" {
			name = c.CorporationName
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
