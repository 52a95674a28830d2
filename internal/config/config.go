package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/owner-resolver/internal/db"
	"github.com/sells-group/owner-resolver/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Feeds  FeedsConfig  `yaml:"feeds" mapstructure:"feeds"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Lookup LookupConfig `yaml:"lookup" mapstructure:"lookup"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// FeedsConfig configures the city open-data feeds.
type FeedsConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	AppToken    string  `yaml:"app_token" mapstructure:"app_token"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	// Datasets overrides dataset IDs by feed name.
	Datasets        map[string]string        `yaml:"datasets" mapstructure:"datasets"`
	ContactsDataset string                   `yaml:"contacts_dataset" mapstructure:"contacts_dataset"`
	Disabled        []string                 `yaml:"disabled" mapstructure:"disabled"`
	Breaker         resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// EnrichConfig configures third-party contact backfill.
type EnrichConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ConfigPath points at the provider chain YAML. Empty uses built-in defaults.
	ConfigPath string  `yaml:"config_path" mapstructure:"config_path"`
	APIKey     string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	CostUSD    float64 `yaml:"cost_usd" mapstructure:"cost_usd"`
}

// LookupConfig configures the lookup orchestrator.
type LookupConfig struct {
	SaveHistory bool `yaml:"save_history" mapstructure:"save_history"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OWNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("feeds.base_url", "https://data.cityofnewyork.us")
	v.SetDefault("feeds.app_token", "")
	v.SetDefault("feeds.timeout_secs", 8)
	v.SetDefault("feeds.rate_limit", 10)
	v.SetDefault("feeds.rate_burst", 10)
	v.SetDefault("feeds.breaker.failure_threshold", 5)
	v.SetDefault("feeds.breaker.cooldown_secs", 60)
	v.SetDefault("enrich.enabled", false)
	v.SetDefault("enrich.config_path", "")
	v.SetDefault("enrich.api_key", "")
	v.SetDefault("enrich.base_url", "https://api.peoplelookup.io")
	v.SetDefault("enrich.cost_usd", 0.10)
	v.SetDefault("lookup.save_history", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "owner.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "lookup", "serve" and "store".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "lookup", "serve":
		if c.Feeds.BaseURL == "" {
			errs = append(errs, "feeds.base_url is required")
		}
		if c.Feeds.TimeoutSecs <= 0 {
			errs = append(errs, "feeds.timeout_secs must be positive")
		}
		if c.Enrich.Enabled && c.Enrich.APIKey == "" {
			errs = append(errs, "enrich.api_key is required when enrich.enabled is set")
		}
		if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
			errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
	case "store":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "store" || c.Lookup.SaveHistory {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
