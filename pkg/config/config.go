package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"stars-end/tribune/pkg/costs"
)

// Config is the root configuration structure for the tribune gateway. It
// covers logging, the budget period, rate limiting, the search cache, the
// model pricing table, and the ordered provider list.
type Config struct {
	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Budget configures the shared cost ledger: ceiling, period schedule,
	// and display currency.
	Budget BudgetConfig `yaml:"budget"`

	// RateLimit configures the default per-provider admission window,
	// applied to providers that do not carry their own.
	RateLimit RateLimitConfig `yaml:"ratelimit"`

	// Search configures the search result cache.
	Search SearchConfig `yaml:"search"`

	// Pricing configures model-default pricing used by providers that do
	// not carry their own rates.
	Pricing PricingConfig `yaml:"pricing"`

	// Engine configures invocation engine options.
	Engine EngineConfig `yaml:"engine"`

	// Providers is the ordered candidate list. Declaration order breaks
	// priority ties, so the order here is meaningful.
	Providers []ProviderEntry `yaml:"providers"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is the output format: json or text.
	// Default: json
	Format string `yaml:"format"`
}

// BudgetConfig configures the shared cost ledger.
type BudgetConfig struct {
	// Ceiling is the budget ceiling per period, in Currency units.
	Ceiling float64 `yaml:"ceiling"`

	// Period is a cron expression (descriptors like "@daily" work too)
	// marking period boundaries. Empty means a single fixed-lifetime
	// ledger with no rolls.
	Period string `yaml:"period"`

	// Currency is a display label for costs. Informational only.
	// Default: USD
	Currency string `yaml:"currency"`
}

// RateLimitConfig configures a per-provider admission window.
type RateLimitConfig struct {
	// Requests is the maximum invocations per window. Zero means
	// unlimited.
	Requests int `yaml:"requests"`

	// Window is the window duration.
	// Default: 1m
	Window time.Duration `yaml:"window"`
}

// SearchConfig configures the search result cache.
type SearchConfig struct {
	// CacheBackend selects the cache implementation: memory, sqlite, or
	// none.
	// Default: memory
	CacheBackend string `yaml:"cache_backend"`

	// CachePath is the SQLite database path (sqlite backend only).
	CachePath string `yaml:"cache_path"`

	// CacheTTL is how long cached results stay live.
	// Default: 1h
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxEntries caps the in-memory cache size. Zero means unlimited.
	CacheMaxEntries int `yaml:"cache_max_entries"`
}

// PricingConfig configures model-default pricing.
type PricingConfig struct {
	// File is an optional YAML pricing table, watched for changes and
	// hot-swapped at runtime. When set, the file's contents replace Models
	// and Default.
	File string `yaml:"file"`

	// Models maps model identifiers (or prefixes) to rates.
	Models map[string]costs.Pricing `yaml:"models"`

	// Default is the fallback applied to models with no row.
	Default costs.Pricing `yaml:"default"`
}

// EngineConfig configures invocation engine options.
type EngineConfig struct {
	// WaitForTopCandidate makes the engine sleep out a short rate-limit
	// denial on the highest-priority candidate instead of skipping it.
	WaitForTopCandidate bool `yaml:"wait_for_top_candidate"`

	// MaxTopCandidateWait bounds that sleep.
	// Default: 2s
	MaxTopCandidateWait time.Duration `yaml:"max_top_candidate_wait"`
}

// ProviderEntry configures one candidate provider.
type ProviderEntry struct {
	// Name is the unique candidate identifier, used in the ledger, the
	// rate limiter, logs, and metrics.
	Name string `yaml:"name"`

	// Type is the adapter type: anthropic, openai, generic, serper, brave.
	Type string `yaml:"type"`

	// Family is the capability family: chat or search. Defaults from Type.
	Family string `yaml:"family"`

	// Model is the model identifier sent to the provider (chat only).
	Model string `yaml:"model"`

	// Priority ranks candidates; lower is tried first. Entries with equal
	// priority keep their declaration order.
	Priority int `yaml:"priority"`

	// BaseURL overrides the adapter's default endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// APIKeyFile is a file whose trimmed contents are the API key.
	// APIKeyEnv wins when both are set and the variable is non-empty.
	APIKeyFile string `yaml:"api_key_file"`

	// Timeout is the per-request timeout for this provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the transport-level retry count for transient upstream
	// failures within a single attempt.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// Pricing is this candidate's cost model. Zero means the model-default
	// table applies.
	Pricing costs.Pricing `yaml:"pricing"`

	// RateLimit overrides the default admission window for this provider.
	RateLimit *RateLimitConfig `yaml:"ratelimit"`

	// PaceTPM enables the adaptive client-side pacer at this initial
	// tokens-per-minute budget (chat providers only). Zero disables it.
	PaceTPM float64 `yaml:"pace_tpm"`

	// HealthCheckInterval enables background reachability probes for this
	// provider at the given interval. Zero disables them; health still
	// updates from live request outcomes.
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// ResolveAPIKey resolves the entry's credential reference. The
// configuration itself never stores key material; adapters receive the
// resolved key at construction time.
func (p ProviderEntry) ResolveAPIKey() (string, error) {
	if p.APIKeyEnv != "" {
		if val := os.Getenv(p.APIKeyEnv); val != "" {
			return val, nil
		}
		if p.APIKeyFile == "" {
			return "", fmt.Errorf("provider %q: environment variable %s is empty", p.Name, p.APIKeyEnv)
		}
	}
	if p.APIKeyFile != "" {
		data, err := os.ReadFile(p.APIKeyFile)
		if err != nil {
			return "", fmt.Errorf("provider %q: failed to read api key file: %w", p.Name, err)
		}
		key := strings.TrimSpace(string(data))
		if key == "" {
			return "", fmt.Errorf("provider %q: api key file %s is empty", p.Name, p.APIKeyFile)
		}
		return key, nil
	}
	return "", nil
}

// IsSearch reports whether the entry belongs to the search family.
func (p ProviderEntry) IsSearch() bool {
	return p.Family == FamilySearch
}

// Capability family values.
const (
	FamilyChat   = "chat"
	FamilySearch = "search"
)
