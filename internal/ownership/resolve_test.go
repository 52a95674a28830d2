package ownership

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/owner-resolver/internal/model"
)

func TestResolve_Empty(t *testing.T) {
	res := Resolve(nil, Evidence{})
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.BestGuessName)
	assert.Equal(t, []string{"No registered owner found"}, res.Reasoning)
}

func TestResolve_TaxRollFallback(t *testing.T) {
	contacts := []model.RankedContact{{Name: "SUE SUPER", Role: model.RoleSiteManager, Score: 65}}
	res := Resolve(contacts, Evidence{TaxRollOwner: "SMITH HOLDINGS LLC"})
	assert.Zero(t, res.Confidence)
	assert.Equal(t, "SMITH HOLDINGS LLC", res.BestGuessName)
	assert.Len(t, res.Reasoning, 2)
}

func TestResolve_IndividualOwner(t *testing.T) {
	contacts := []model.RankedContact{
		{Name: "MARY JONES", Role: model.RoleHeadOfficer, Score: 75},
		{Name: "SMITH LLC", Role: model.RoleCorporateOwner, Score: 55},
	}
	res := Resolve(contacts, Evidence{})
	assert.Equal(t, "MARY JONES", res.BestGuessName)
	assert.Equal(t, 75, res.Confidence)
	assert.Equal(t, []string{"Registered Head Officer: MARY JONES"}, res.Reasoning)
}

func TestResolve_CorporateOnly(t *testing.T) {
	contacts := []model.RankedContact{
		{Name: "SMITH HOLDINGS LLC", Role: model.RoleCorporateOwner, Score: 55},
	}
	res := Resolve(contacts, Evidence{TaxRollOwner: "SMITH HOLDINGS LLC"})
	assert.Equal(t, "SMITH HOLDINGS LLC", res.BestGuessName)
	// Last-name token of a corporate name is its final word after suffix stripping.
	assert.Equal(t, 60, res.Confidence)
	assert.Contains(t, res.Reasoning[1], "unresolved")
}

func TestResolve_AllCorroborationsCapped(t *testing.T) {
	contacts := []model.RankedContact{
		{Name: "JOHN SMITH", Phone: "2125551234", Role: model.RoleOwnerApplicant, Score: 90},
		{Name: "JOHN SMITH", Role: model.RoleIndividualOwner, Score: 75},
	}
	ev := Evidence{
		TaxRollOwner: "SMITH, JOHN",
		Respondents:  []string{"ACME LLC", "john smith"},
	}
	res := Resolve(contacts, ev)
	assert.Equal(t, "JOHN SMITH", res.BestGuessName)
	assert.Equal(t, 95, res.Confidence)
	assert.Len(t, res.Reasoning, 4)
	assert.Contains(t, res.Reasoning[1], "Phone on file")
	assert.Contains(t, res.Reasoning[2], "litigation")
	assert.Contains(t, res.Reasoning[3], "Tax roll")
}

func TestResolve_PartialCorroboration(t *testing.T) {
	contacts := []model.RankedContact{
		{Name: "JOHN SMITH", Role: model.RoleIndividualOwner, Score: 75},
	}
	res := Resolve(contacts, Evidence{Respondents: []string{"SMITH REALTY"}})
	assert.Equal(t, 85, res.Confidence)

	res = Resolve(contacts, Evidence{TaxRollOwner: "JONES LLC"})
	assert.Equal(t, 75, res.Confidence)
}

func TestResolve_PunctuatedSurname(t *testing.T) {
	contacts := []model.RankedContact{
		{Name: "MARY O'BRIEN", Role: model.RoleIndividualOwner, Score: 75},
	}
	ev := Evidence{
		TaxRollOwner: "OBRIEN, MARY",
		Respondents:  []string{"O'BRIEN, MARY A."},
	}
	res := Resolve(contacts, ev)
	assert.Equal(t, 90, res.Confidence)
	assert.Len(t, res.Reasoning, 3)
	assert.Contains(t, res.Reasoning[1], "litigation")
	assert.Contains(t, res.Reasoning[2], "Tax roll")

	contacts[0].Name = "PAUL ST. JOHN"
	res = Resolve(contacts, Evidence{TaxRollOwner: "ST JOHN PAUL"})
	assert.Equal(t, 80, res.Confidence)
}
