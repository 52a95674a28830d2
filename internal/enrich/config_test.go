package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yaml := `
enrich:
  defaults:
    confidence_threshold: 0.6
    time_decay:
      half_life_days: 730
      floor: 0.1
    max_cost_usd: 0.75
    max_contacts: 2
  fields:
    phone:
      confidence_threshold: 0.7
      time_decay: { half_life_days: 365, floor: 0.2 }
      sources:
        - { name: peoplelookup, tier: 2 }
    email:
      sources:
        - { name: peoplelookup, tier: 2 }
`
	path := filepath.Join(t.TempDir(), "enrich.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.Defaults.ConfidenceThreshold)
	assert.Equal(t, 0.75, cfg.Defaults.MaxCostUSD)
	assert.Equal(t, 2, cfg.Defaults.MaxContacts)
	assert.Equal(t, 8, cfg.Defaults.TimeoutSecs)

	phone := cfg.GetFieldConfig(FieldPhone)
	assert.Equal(t, 0.7, phone.ConfidenceThreshold)
	assert.Equal(t, 365, phone.TimeDecay.HalfLifeDays)
	require.Len(t, phone.Sources, 1)
	assert.Equal(t, "peoplelookup", phone.Sources[0].Name)
	assert.Equal(t, 2, phone.Sources[0].Tier)

	email := cfg.GetFieldConfig(FieldEmail)
	assert.Equal(t, 0.6, email.ConfidenceThreshold)
	assert.Equal(t, 730, email.TimeDecay.HalfLifeDays)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enrich: [unclosed"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestGetFieldConfig_Fallback(t *testing.T) {
	cfg := Default()
	fc := cfg.GetFieldConfig("linkedin")
	assert.Equal(t, cfg.Defaults.ConfidenceThreshold, fc.ConfidenceThreshold)
	assert.Empty(t, fc.Sources)
	require.NotNil(t, fc.TimeDecay)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3, cfg.Defaults.MaxContacts)
	assert.Equal(t, 0.6, cfg.GetFieldConfig(FieldPhone).ConfidenceThreshold)
	assert.Equal(t, "peoplelookup", cfg.GetFieldConfig(FieldEmail).Sources[0].Name)
}
