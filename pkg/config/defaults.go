package config

import "time"

// Default values for configuration fields.
const (
	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	// Budget defaults
	DefaultBudgetCeiling  = 10.0
	DefaultBudgetCurrency = "USD"

	// Rate limit defaults
	DefaultRateLimitWindow = time.Minute

	// Search cache defaults
	DefaultSearchCacheBackend = "memory"
	DefaultSearchCachePath    = "data/search_cache.db"
	DefaultSearchCacheTTL     = time.Hour

	// Engine defaults
	DefaultMaxTopCandidateWait = 2 * time.Second

	// Provider defaults
	DefaultProviderTimeout    = 60 * time.Second
	DefaultProviderMaxRetries = 3
)

// defaultFamilies maps adapter types to their capability family.
var defaultFamilies = map[string]string{
	"anthropic": FamilyChat,
	"openai":    FamilyChat,
	"generic":   FamilyChat,
	"serper":    FamilySearch,
	"brave":     FamilySearch,
}

// ApplyDefaults fills zero-valued fields with defaults. It is called by the
// loaders before validation, so a minimal file with just a provider list is
// a complete configuration.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Budget.Ceiling == 0 {
		cfg.Budget.Ceiling = DefaultBudgetCeiling
	}
	if cfg.Budget.Currency == "" {
		cfg.Budget.Currency = DefaultBudgetCurrency
	}

	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = DefaultRateLimitWindow
	}

	if cfg.Search.CacheBackend == "" {
		cfg.Search.CacheBackend = DefaultSearchCacheBackend
	}
	if cfg.Search.CachePath == "" {
		cfg.Search.CachePath = DefaultSearchCachePath
	}
	if cfg.Search.CacheTTL == 0 {
		cfg.Search.CacheTTL = DefaultSearchCacheTTL
	}

	if cfg.Engine.MaxTopCandidateWait == 0 {
		cfg.Engine.MaxTopCandidateWait = DefaultMaxTopCandidateWait
	}

	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.Family == "" {
			p.Family = defaultFamilies[p.Type]
		}
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.MaxRetries == 0 {
			p.MaxRetries = DefaultProviderMaxRetries
		}
		if p.RateLimit != nil && p.RateLimit.Window == 0 {
			p.RateLimit.Window = DefaultRateLimitWindow
		}
	}
}
