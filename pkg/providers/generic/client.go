package generic

import (
	"context"
	"log/slog"
	"net/http"

	"stars-end/tribune/pkg/providers"
)

// Provider is a generic OpenAI-compatible provider adapter. It works with
// any server that implements the OpenAI chat completions format, such as
// Ollama, LM Studio, vLLM, or LocalAI.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new generic OpenAI-compatible provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "generic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base URL is required for generic provider",
		}
	}

	// API key is optional: local servers usually run without auth.

	if config.MaxRetries == 0 {
		config.MaxRetries = 1 // Local providers typically don't need retries
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 5
	}

	config.Type = "generic"

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("Generic OpenAI-compatible provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendCompletion sends a completion request to the chat completions
// endpoint.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	wireReq, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	var wireResp chatResponse
	url := p.GetConfig().BaseURL + "/chat/completions"
	if err := p.DoJSONRequest(ctx, http.MethodPost, url, wireReq, &wireResp, p.authHeaders()); err != nil {
		return nil, err
	}

	resp, err := translateResponse(p.GetName(), &wireResp)
	if err != nil {
		return nil, err
	}

	slog.Debug("Completion request successful",
		"provider", p.GetName(),
		"model", resp.Model,
		"tokens_used", resp.Usage.TotalTokens,
	)

	return resp, nil
}

// StartHealthChecker starts periodic health checks against the models
// endpoint.
func (p *Provider) StartHealthChecker(ctx context.Context) {
	p.BaseProvider.StartHealthChecker(ctx, p.HealthCheck)
}

// HealthCheck probes GET {base_url}/models, which every OpenAI-compatible
// server implements.
func (p *Provider) HealthCheck(ctx context.Context) error {
	url := p.GetConfig().BaseURL + "/models"
	resp, err := p.DoRequest(ctx, http.MethodGet, url, nil, p.authHeaders())
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (p *Provider) authHeaders() map[string]string {
	if key := p.GetConfig().APIKey; key != "" {
		return map[string]string{"Authorization": "Bearer " + key}
	}
	return nil
}
