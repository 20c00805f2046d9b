package providerfactory

import (
	"fmt"
	"log/slog"

	"stars-end/tribune/pkg/config"
	"stars-end/tribune/pkg/gateway"
	"stars-end/tribune/pkg/providers"
	"stars-end/tribune/pkg/providers/anthropic"
	"stars-end/tribune/pkg/providers/brave"
	"stars-end/tribune/pkg/providers/generic"
	"stars-end/tribune/pkg/providers/openai"
	"stars-end/tribune/pkg/providers/serper"
)

// NewProvider creates a live adapter from a config entry. The entry's
// credential reference is resolved here, so key material never lives in the
// configuration itself.
//
// Supported provider types:
//   - "anthropic": Anthropic Messages API
//   - "openai": OpenAI API
//   - "generic": OpenAI-compatible APIs (OpenRouter, Ollama, vLLM, etc.)
//   - "serper": Serper web search
//   - "brave": Brave web search
//
// Example:
//
//	entry := config.ProviderEntry{
//	    Name: "claude",
//	    Type: "anthropic",
//	    Model: "claude-sonnet-4-20250514",
//	    APIKeyEnv: "ANTHROPIC_API_KEY",
//	}
//	provider, err := NewProvider(entry)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
func NewProvider(entry config.ProviderEntry) (providers.Provider, error) {
	apiKey, err := entry.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	cfg := providers.ProviderConfig{
		Name:                entry.Name,
		Type:                entry.Type,
		BaseURL:             entry.BaseURL,
		APIKey:              apiKey,
		Timeout:             entry.Timeout,
		MaxRetries:          entry.MaxRetries,
		HealthCheckInterval: entry.HealthCheckInterval,
	}

	slog.Debug("creating provider",
		"name", entry.Name,
		"type", entry.Type,
		"base_url", entry.BaseURL,
	)

	var provider providers.Provider

	switch entry.Type {
	case "anthropic":
		provider, err = anthropic.NewProvider(cfg)

	case "openai":
		provider, err = openai.NewProvider(cfg)

	case "generic":
		provider, err = generic.NewProvider(cfg)

	case "serper":
		provider, err = serper.NewProvider(cfg)

	case "brave":
		provider, err = brave.NewProvider(cfg)

	default:
		return nil, &providers.ConfigError{
			Provider: entry.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: anthropic, openai, generic, serper, brave)", entry.Type),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", entry.Name, err)
	}

	return provider, nil
}

// NewCandidate creates the adapter for an entry and binds it to its
// registry spec. Chat adapters with a pacing budget are wrapped so every
// completion waits for pacer capacity first.
func NewCandidate(entry config.ProviderEntry) (gateway.Candidate, error) {
	provider, err := NewProvider(entry)
	if err != nil {
		return gateway.Candidate{}, err
	}
	return bindCandidate(entry, provider)
}
