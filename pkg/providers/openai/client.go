package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"stars-end/tribune/pkg/providers"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ChatClient is the subset of the go-openai client used by the adapter.
// *sdk.Client satisfies it; tests substitute a stub.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request sdk.ChatCompletionRequest) (sdk.ChatCompletionResponse, error)
}

// Provider is the OpenAI provider adapter.
type Provider struct {
	*providers.BaseProvider
	chat ChatClient
}

// NewProvider creates a new OpenAI provider instance backed by the
// go-openai client.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}

	clientConfig := sdk.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return NewProviderWithClient(config, sdk.NewClientWithConfig(clientConfig))
}

// NewProviderWithClient creates an OpenAI provider on an explicit chat
// client. Tests use this to inject stubs.
func NewProviderWithClient(config providers.ProviderConfig, chat ChatClient) (*Provider, error) {
	if chat == nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "client",
			Message:  "chat client is required",
		}
	}

	config.Type = "openai"

	p := &Provider{
		BaseProvider: providers.NewBaseProvider(config),
		chat:         chat,
	}

	slog.Info("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendCompletion sends a completion request to the chat completions API.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	chatReq, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	chatResp, err := p.chat.CreateChatCompletion(ctx, *chatReq)
	p.RecordOutcome(err)
	if err != nil {
		return nil, p.mapError(req.Model, err)
	}

	resp, err := translateResponse(p.GetName(), &chatResp)
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

// StartHealthChecker starts periodic reachability probes in the background.
func (p *Provider) StartHealthChecker(ctx context.Context) {
	p.BaseProvider.StartHealthChecker(ctx, p.HealthCheck)
}

// HealthCheck probes the API base URL. Any HTTP response counts as
// reachable: the probe checks connectivity, not authorization.
func (p *Provider) HealthCheck(ctx context.Context) error {
	base := p.GetConfig().BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return err
	}
	resp, err := healthClient.Do(httpReq)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

var healthClient = &http.Client{Timeout: 10 * time.Second}

// mapError converts go-openai errors into the typed errors from the
// providers package.
func (p *Provider) mapError(model string, err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &providers.AuthError{
				Provider: p.GetName(),
				Message:  apiErr.Message,
			}
		case http.StatusTooManyRequests:
			return &providers.RateLimitError{
				Provider: p.GetName(),
				Message:  apiErr.Message,
			}
		case http.StatusNotFound:
			return &providers.ModelNotFoundError{
				Provider: p.GetName(),
				Model:    model,
			}
		default:
			return &providers.ProviderError{
				Provider:   p.GetName(),
				StatusCode: apiErr.HTTPStatusCode,
				Message:    apiErr.Message,
				Cause:      err,
			}
		}
	}

	var reqErr *sdk.RequestError
	if errors.As(err, &reqErr) {
		return &providers.ProviderError{
			Provider:   p.GetName(),
			StatusCode: reqErr.HTTPStatusCode,
			Message:    "chat completion request failed",
			Cause:      err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &providers.TimeoutError{
			Provider: p.GetName(),
			Timeout:  p.GetConfig().Timeout,
		}
	}

	return &providers.ProviderError{
		Provider: p.GetName(),
		Message:  "chat completion request failed",
		Cause:    err,
	}
}
