// Package openai implements the OpenAI provider adapter.
//
// The adapter drives OpenAI's chat completions API through the go-openai
// client library and normalizes responses into the provider-agnostic
// completion shape. It supports:
//
//   - Chat completions
//   - Token usage tracking
//   - Custom base URLs (Azure-style gateways, proxies)
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:   "openai",
//	    Type:   "openai",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	}
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	req := &providers.CompletionRequest{
//	    Model: "gpt-4o",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Hello!"},
//	    },
//	}
//
//	resp, err := provider.SendCompletion(ctx, req)
//
// # Error Handling
//
// Client library errors are mapped onto the typed errors in the providers
// package: 401/403 become AuthError, 429 becomes RateLimitError, 404
// becomes ModelNotFoundError, and other statuses become ProviderError.
// Context deadline expiry becomes TimeoutError.
package openai
