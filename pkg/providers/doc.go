// Package providers implements a unified abstraction layer for LLM and web
// search providers.
//
// # Overview
//
// The providers package gives the invocation gateway a consistent surface for
// talking to heterogeneous upstreams: hosted LLM APIs (Anthropic, OpenAI),
// OpenAI-compatible local models, and web search APIs (Serper, Brave). It
// normalizes requests and responses, manages connections, tracks health, and
// maps upstream failures to a typed error set the failover engine can reason
// about.
//
// # Architecture
//
// The package is organized into layers:
//
//  1. Provider interfaces - ChatProvider and SearchProvider contracts
//  2. BaseProvider - identity and health tracking shared by every adapter
//  3. HTTPProvider - HTTP client base (connection pooling, retries, status mapping)
//  4. Adapters - provider-specific implementations in subpackages
//  5. Pacer - adaptive client-side pacing for chat providers
//
// SDK-backed adapters (anthropic, openai) embed BaseProvider directly; raw
// HTTP adapters (generic, serper, brave) embed HTTPProvider and inherit its
// retry and error mapping behavior.
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:    "local-llama",
//	    Type:    "generic",
//	    BaseURL: "http://localhost:11434/v1",
//	    Timeout: 60 * time.Second,
//	}
//
//	provider, err := generic.New(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model: "llama3",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Summarize this agenda item."},
//	    },
//	})
//
// # Error Handling
//
// Adapters return typed errors so callers can branch on failure class:
//
//	resp, err := provider.SendCompletion(ctx, req)
//	if err != nil {
//	    var rateLimitErr *providers.RateLimitError
//	    if errors.As(err, &rateLimitErr) {
//	        // Back off for rateLimitErr.RetryAfter, or fail over.
//	    }
//	}
//
// IsPermanent reports whether an error indicates a request no other provider
// could serve either, which short-circuits failover.
package providers
