// Package enrich backfills missing phone and email values on top-ranked
// contacts from third-party person lookup providers.
package enrich

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/owner-resolver/internal/enrich/provider"
)

// Enrichable fields.
const (
	FieldPhone = provider.FieldPhone
	FieldEmail = provider.FieldEmail
)

// Config is the top-level enrichment configuration.
type Config struct {
	Defaults DefaultConfig          `yaml:"defaults"`
	Fields   map[string]FieldConfig `yaml:"fields"`
}

// DefaultConfig holds global defaults.
type DefaultConfig struct {
	ConfidenceThreshold float64     `yaml:"confidence_threshold"`
	TimeDecay           DecayConfig `yaml:"time_decay"`
	// MaxCostUSD caps provider spend per lookup.
	MaxCostUSD float64 `yaml:"max_cost_usd"`
	// MaxContacts is how many top-ranked contacts are considered.
	MaxContacts int `yaml:"max_contacts"`
	TimeoutSecs int `yaml:"timeout_secs"`
}

// DecayConfig holds time decay parameters.
type DecayConfig struct {
	HalfLifeDays int     `yaml:"half_life_days"`
	Floor        float64 `yaml:"floor"`
}

// FieldConfig configures the provider chain for one field.
type FieldConfig struct {
	ConfidenceThreshold float64        `yaml:"confidence_threshold"`
	TimeDecay           *DecayConfig   `yaml:"time_decay,omitempty"`
	Sources             []SourceConfig `yaml:"sources"`
}

// SourceConfig names a provider in a field's chain.
type SourceConfig struct {
	Name string `yaml:"name"`
	Tier int    `yaml:"tier"` // 0 = free, 2 = paid
}

// Default returns the built-in chain: one paid people lookup for both
// fields.
func Default() *Config {
	chain := []SourceConfig{{Name: "peoplelookup", Tier: 2}}
	cfg := &Config{
		Defaults: DefaultConfig{
			ConfidenceThreshold: 0.6,
			TimeDecay:           DecayConfig{HalfLifeDays: 730, Floor: 0.1},
			MaxCostUSD:          1.0,
			MaxContacts:         3,
			TimeoutSecs:         8,
		},
		Fields: map[string]FieldConfig{
			FieldPhone: {Sources: chain},
			FieldEmail: {Sources: chain},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads enrichment config from a YAML file with a top-level
// "enrich" key.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read config %s", path)
	}

	var wrapper struct {
		Enrich Config `yaml:"enrich"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "enrich: parse config")
	}

	cfg := &wrapper.Enrich
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Defaults.MaxContacts <= 0 {
		c.Defaults.MaxContacts = 3
	}
	if c.Defaults.TimeoutSecs <= 0 {
		c.Defaults.TimeoutSecs = 8
	}
	for key, fc := range c.Fields {
		if fc.ConfidenceThreshold == 0 {
			fc.ConfidenceThreshold = c.Defaults.ConfidenceThreshold
		}
		if fc.TimeDecay == nil {
			fc.TimeDecay = &c.Defaults.TimeDecay
		}
		c.Fields[key] = fc
	}
}

// GetFieldConfig returns the config for a field, falling back to defaults.
func (c *Config) GetFieldConfig(field string) FieldConfig {
	if fc, ok := c.Fields[field]; ok {
		return fc
	}
	return FieldConfig{
		ConfidenceThreshold: c.Defaults.ConfidenceThreshold,
		TimeDecay:           &c.Defaults.TimeDecay,
	}
}
