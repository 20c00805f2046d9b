package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
logging:
  level: debug
  format: text

budget:
  ceiling: 25.0
  period: "@daily"

search:
  cache_backend: memory
  cache_ttl: 30m

providers:
  - name: claude
    type: anthropic
    model: claude-sonnet-4-20250514
    priority: 1
    api_key_env: ANTHROPIC_API_KEY
    pricing:
      prompt_per_1k: 0.003
      completion_per_1k: 0.015
    ratelimit:
      requests: 60
      window: 1m
  - name: openrouter
    type: generic
    model: meta-llama/llama-3-70b
    priority: 2
    base_url: https://openrouter.ai/api/v1
    api_key_env: OPENROUTER_API_KEY
  - name: serper
    type: serper
    priority: 1
    api_key_env: SERPER_API_KEY
    pricing:
      per_query: 0.001
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// ===== File Loading =====

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %q", cfg.Logging.Level)
	}
	if cfg.Budget.Ceiling != 25.0 {
		t.Errorf("Expected ceiling 25.0, got %f", cfg.Budget.Ceiling)
	}
	if cfg.Budget.Period != "@daily" {
		t.Errorf("Expected @daily period, got %q", cfg.Budget.Period)
	}
	if cfg.Search.CacheTTL != 30*time.Minute {
		t.Errorf("Expected 30m cache TTL, got %s", cfg.Search.CacheTTL)
	}
	if len(cfg.Providers) != 3 {
		t.Fatalf("Expected 3 providers, got %d", len(cfg.Providers))
	}

	claude := cfg.Providers[0]
	if claude.Family != FamilyChat {
		t.Errorf("Expected claude family defaulted to chat, got %q", claude.Family)
	}
	if claude.Pricing.PromptPer1K != 0.003 {
		t.Errorf("Expected prompt rate 0.003, got %f", claude.Pricing.PromptPer1K)
	}
	if claude.RateLimit == nil || claude.RateLimit.Requests != 60 {
		t.Error("Expected claude rate limit of 60 requests")
	}
	if claude.Timeout != DefaultProviderTimeout {
		t.Errorf("Expected default timeout applied, got %s", claude.Timeout)
	}

	serper := cfg.Providers[2]
	if serper.Family != FamilySearch {
		t.Errorf("Expected serper family defaulted to search, got %q", serper.Family)
	}
	if serper.Pricing.PerQuery != 0.001 {
		t.Errorf("Expected per-query rate 0.001, got %f", serper.Pricing.PerQuery)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "providers: [unclosed")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	_, err := Load(writeConfig(t, `
providers:
  - name: broken
    type: teleport
`))
	if err == nil {
		t.Fatal("Expected validation error for unknown adapter type")
	}
	if !strings.Contains(err.Error(), "providers[0].type") {
		t.Errorf("Expected field path in error, got %v", err)
	}
}

// ===== Environment Overrides =====

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("TRIBUNE_LOGGING_LEVEL", "warn")
	t.Setenv("TRIBUNE_BUDGET_CEILING", "99.5")
	t.Setenv("TRIBUNE_SEARCH_CACHE_TTL", "5m")
	t.Setenv("TRIBUNE_PROVIDER_OPENROUTER_BASE_URL", "https://staging.openrouter.example/v1")

	cfg, err := LoadWithEnvOverrides(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides failed: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected env override for level, got %q", cfg.Logging.Level)
	}
	if cfg.Budget.Ceiling != 99.5 {
		t.Errorf("Expected env override for ceiling, got %f", cfg.Budget.Ceiling)
	}
	if cfg.Search.CacheTTL != 5*time.Minute {
		t.Errorf("Expected env override for cache TTL, got %s", cfg.Search.CacheTTL)
	}
	if cfg.Providers[1].BaseURL != "https://staging.openrouter.example/v1" {
		t.Errorf("Expected per-provider base URL override, got %q", cfg.Providers[1].BaseURL)
	}
	// Untouched fields keep their file values.
	if cfg.Budget.Period != "@daily" {
		t.Errorf("Expected file value preserved for period, got %q", cfg.Budget.Period)
	}
}

func TestLoadWithEnvOverridesInvalidValue(t *testing.T) {
	t.Setenv("TRIBUNE_LOGGING_LEVEL", "shout")

	if _, err := LoadWithEnvOverrides(writeConfig(t, sampleConfig)); err == nil {
		t.Error("Expected re-validation to reject an invalid override")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"claude", "CLAUDE"},
		{"open-router", "OPEN_ROUTER"},
		{"gpt4.mini", "GPT4_MINI"},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
