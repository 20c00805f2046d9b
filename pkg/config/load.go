package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path. It
// applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use LoadWithEnvOverrides
// for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// TRIBUNE_SECTION_FIELD (e.g. TRIBUNE_BUDGET_CEILING) and always take
// precedence over file values.
//
// The loading sequence is:
//  1. Load YAML from file and apply defaults
//  2. Apply environment variable overrides
//  3. Re-validate the final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format TRIBUNE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Logging overrides
	if val := os.Getenv("TRIBUNE_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("TRIBUNE_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Budget overrides
	if val := os.Getenv("TRIBUNE_BUDGET_CEILING"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Budget.Ceiling = f
		}
	}
	if val := os.Getenv("TRIBUNE_BUDGET_PERIOD"); val != "" {
		cfg.Budget.Period = val
	}
	if val := os.Getenv("TRIBUNE_BUDGET_CURRENCY"); val != "" {
		cfg.Budget.Currency = val
	}

	// Rate limit overrides
	if val := os.Getenv("TRIBUNE_RATELIMIT_REQUESTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.Requests = i
		}
	}
	if val := os.Getenv("TRIBUNE_RATELIMIT_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.RateLimit.Window = d
		}
	}

	// Search cache overrides
	if val := os.Getenv("TRIBUNE_SEARCH_CACHE_BACKEND"); val != "" {
		cfg.Search.CacheBackend = val
	}
	if val := os.Getenv("TRIBUNE_SEARCH_CACHE_PATH"); val != "" {
		cfg.Search.CachePath = val
	}
	if val := os.Getenv("TRIBUNE_SEARCH_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Search.CacheTTL = d
		}
	}

	// Pricing overrides
	if val := os.Getenv("TRIBUNE_PRICING_FILE"); val != "" {
		cfg.Pricing.File = val
	}

	// Per-provider overrides keyed by entry name: base URL and credential
	// reference, the two knobs deployments swap between environments.
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		prefix := "TRIBUNE_PROVIDER_" + envKey(p.Name)
		if val := os.Getenv(prefix + "_BASE_URL"); val != "" {
			p.BaseURL = val
		}
		if val := os.Getenv(prefix + "_API_KEY_ENV"); val != "" {
			p.APIKeyEnv = val
		}
	}
}

// envKey uppercases a provider name into its environment variable segment,
// mapping separators to underscores.
func envKey(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r-('a'-'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
