package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"stars-end/tribune/pkg/providers"
)

const defaultBaseURL = "https://api.anthropic.com"

// MessagesClient is the subset of the Anthropic SDK used by the adapter.
// *sdk.MessageService satisfies it; tests substitute a stub.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Provider is the Anthropic provider adapter.
type Provider struct {
	*providers.BaseProvider
	messages MessagesClient
}

// NewProvider creates a new Anthropic provider instance backed by the
// official SDK client.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
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

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}
	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	client := sdk.NewClient(opts...)
	return NewProviderWithClient(config, &client.Messages)
}

// NewProviderWithClient creates an Anthropic provider on an explicit
// Messages client. Tests use this to inject stubs.
func NewProviderWithClient(config providers.ProviderConfig, messages MessagesClient) (*Provider, error) {
	if messages == nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "client",
			Message:  "messages client is required",
		}
	}

	config.Type = "anthropic"

	p := &Provider{
		BaseProvider: providers.NewBaseProvider(config),
		messages:     messages,
	}

	slog.Info("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendCompletion sends a completion request to the Messages API.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	params, err := transformRequest(req)
	if err != nil {
		return nil, err
	}

	msg, err := p.messages.New(ctx, *params)
	p.RecordOutcome(err)
	if err != nil {
		return nil, p.mapError(req.Model, err)
	}

	resp := transformResponse(p.GetName(), msg)

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

// mapError converts SDK errors into the typed errors from the providers
// package.
func (p *Provider) mapError(model string, err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &providers.AuthError{
				Provider: p.GetName(),
				Message:  "authentication rejected by Anthropic API",
			}
		case http.StatusTooManyRequests:
			return &providers.RateLimitError{
				Provider:   p.GetName(),
				RetryAfter: retryAfterHint(apierr),
				Message:    "rate limited by Anthropic API",
			}
		case http.StatusNotFound:
			return &providers.ModelNotFoundError{
				Provider: p.GetName(),
				Model:    model,
			}
		default:
			return &providers.ProviderError{
				Provider:   p.GetName(),
				StatusCode: apierr.StatusCode,
				Message:    "Anthropic API request failed",
				Cause:      err,
			}
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
		Message:  "messages request failed",
		Cause:    err,
	}
}

// retryAfterHint extracts the Retry-After header from a rate limit
// response, if present.
func retryAfterHint(apierr *sdk.Error) time.Duration {
	if apierr.Response == nil {
		return 0
	}
	header := apierr.Response.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
