package providers

import "context"

// Provider is the base interface every adapter implements, covering
// identity, health, and lifecycle. Capability interfaces (ChatProvider,
// SearchProvider) embed it.
//
// All blocking methods accept a context.Context for cancellation and
// timeout control. Implementations must respect context cancellation and
// return promptly when the context is cancelled.
type Provider interface {
	// GetName returns the provider's configured name (e.g., "anthropic", "serper").
	GetName() string

	// GetType returns the adapter type (e.g., "anthropic", "openai", "generic").
	GetType() string

	// GetConfig returns the provider's configuration.
	GetConfig() ProviderConfig

	// HealthCheck performs an on-demand health check against the provider.
	// It sends a lightweight request to verify the provider is reachable.
	// Returns nil if the provider is healthy.
	HealthCheck(ctx context.Context) error

	// IsHealthy returns the current health status of the provider. Updated
	// after every request and health check.
	IsHealthy() bool

	// GetHealth returns detailed health information including last check
	// time, consecutive failures, and error details.
	GetHealth() ProviderHealth

	// Close closes the provider and releases any resources (HTTP
	// connections, background checkers). After Close, the provider must
	// not be used.
	Close() error
}

// ChatProvider is a provider that can serve completion requests.
//
// Example:
//
//	resp, err := provider.SendCompletion(ctx, &CompletionRequest{
//	    Model: "claude-sonnet-4-20250514",
//	    Messages: []Message{
//	        {Role: RoleUser, Content: "What changed in this ordinance?"},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Content)
type ChatProvider interface {
	Provider

	// SendCompletion sends a completion request to the provider and returns
	// the normalized response. The request is transformed to the
	// provider-specific format; failures map to the typed errors in this
	// package.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// SearchProvider is a provider that can serve web search requests.
type SearchProvider interface {
	Provider

	// SendSearch executes a search query against the provider and returns
	// normalized hits in rank order.
	SendSearch(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
}
