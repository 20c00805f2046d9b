// Package anthropic implements the Anthropic provider adapter.
//
// The adapter drives Anthropic's Messages API through the official Go SDK
// and normalizes responses into the provider-agnostic completion shape. It
// supports:
//
//   - Messages API (Claude model family)
//   - System prompt extraction from system-role messages
//   - Token usage tracking
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:   "anthropic",
//	    Type:   "anthropic",
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	}
//
//	provider, err := anthropic.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	req := &providers.CompletionRequest{
//	    Model: "claude-sonnet-4-20250514",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleSystem, Content: "You are terse."},
//	        {Role: providers.RoleUser, Content: "Hello!"},
//	    },
//	}
//
//	resp, err := provider.SendCompletion(ctx, req)
//
// # Message Handling
//
// Anthropic separates the system prompt from the conversation. The adapter
// collects system-role messages into the request's system blocks and maps
// the remaining user/assistant messages onto Messages API turns, which must
// start with a user turn and strictly alternate.
//
// # Error Handling
//
// SDK errors are mapped onto the typed errors in the providers package:
// 401/403 become AuthError, 429 becomes RateLimitError (with the
// Retry-After hint when the response carries one), 404 becomes
// ModelNotFoundError, and other statuses become ProviderError. Context
// deadline expiry becomes TimeoutError.
package anthropic
