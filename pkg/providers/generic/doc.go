// Package generic implements a generic OpenAI-compatible provider adapter.
//
// The adapter speaks the OpenAI chat completions wire format over plain
// HTTP, which makes it work with any server that implements that format:
//
//   - Ollama (http://localhost:11434/v1)
//   - LM Studio (http://localhost:1234/v1)
//   - vLLM (http://localhost:8000/v1)
//   - Text Generation Inference (http://localhost:8080/v1)
//   - LocalAI (http://localhost:8080/v1)
//   - Custom OpenAI-compatible endpoints
//
// Unlike the openai package, which goes through the vendor client library,
// this adapter issues requests directly so it keeps working against servers
// that implement only the basic completions subset.
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:    "ollama",
//	    Type:    "generic",
//	    BaseURL: "http://localhost:11434/v1",
//	    // API key is optional for local providers
//	}
//
//	provider, err := generic.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	req := &providers.CompletionRequest{
//	    Model: "llama3",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Hello!"},
//	    },
//	}
//
//	resp, err := provider.SendCompletion(ctx, req)
//
// # Health Checks
//
// The health check probes GET {base_url}/models, which every
// OpenAI-compatible server implements.
package generic
