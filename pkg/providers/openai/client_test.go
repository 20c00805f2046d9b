package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	sdk "github.com/sashabaranov/go-openai"

	"stars-end/tribune/pkg/providers"
)

// stubChat is a canned ChatClient for tests.
type stubChat struct {
	lastReq sdk.ChatCompletionRequest
	resp    sdk.ChatCompletionResponse
	err     error
	calls   int
}

func (s *stubChat) CreateChatCompletion(ctx context.Context, request sdk.ChatCompletionRequest) (sdk.ChatCompletionResponse, error) {
	s.calls++
	s.lastReq = request
	if s.err != nil {
		return sdk.ChatCompletionResponse{}, s.err
	}
	return s.resp, nil
}

func chatResponse(content string) sdk.ChatCompletionResponse {
	return sdk.ChatCompletionResponse{
		ID:      "chatcmpl-test-123",
		Model:   "gpt-4o",
		Created: 1700000000,
		Choices: []sdk.ChatCompletionChoice{
			{
				Message:      sdk.ChatCompletionMessage{Role: sdk.ChatMessageRoleAssistant, Content: content},
				FinishReason: sdk.FinishReasonStop,
			},
		},
		Usage: sdk.Usage{PromptTokens: 12, CompletionTokens: 8, TotalTokens: 20},
	}
}

func testConfig() providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:   "openai-primary",
		APIKey: "test-key",
	}
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{APIKey: "key"})
	var configErr *providers.ConfigError
	if !errors.As(err, &configErr) || configErr.Field != "name" {
		t.Errorf("expected ConfigError for missing name, got %v", err)
	}

	_, err = NewProvider(providers.ProviderConfig{Name: "openai"})
	if !errors.As(err, &configErr) || configErr.Field != "api_key" {
		t.Errorf("expected ConfigError for missing API key, got %v", err)
	}
}

func TestProvider_Identity(t *testing.T) {
	provider, err := NewProviderWithClient(testConfig(), &stubChat{resp: chatResponse("hi")})
	if err != nil {
		t.Fatalf("NewProviderWithClient failed: %v", err)
	}
	defer provider.Close()

	if provider.GetName() != "openai-primary" {
		t.Errorf("expected name openai-primary, got %s", provider.GetName())
	}
	if provider.GetType() != "openai" {
		t.Errorf("expected type openai, got %s", provider.GetType())
	}
}

func TestSendCompletion_Success(t *testing.T) {
	stub := &stubChat{resp: chatResponse("Hello there!")}
	provider, err := NewProviderWithClient(testConfig(), stub)
	if err != nil {
		t.Fatalf("NewProviderWithClient failed: %v", err)
	}
	defer provider.Close()

	req := &providers.CompletionRequest{
		Model: "gpt-4o",
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: "You are terse."},
			{Role: providers.RoleUser, Content: "Hello!"},
		},
		Temperature: 0.7,
		MaxTokens:   512,
	}

	resp, err := provider.SendCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("SendCompletion failed: %v", err)
	}

	if resp.Content != "Hello there!" {
		t.Errorf("expected content 'Hello there!', got %q", resp.Content)
	}
	if resp.Provider != "openai-primary" {
		t.Errorf("expected provider openai-primary, got %s", resp.Provider)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason stop, got %s", resp.FinishReason)
	}
	if resp.Created != 1700000000 {
		t.Errorf("expected created timestamp passed through, got %d", resp.Created)
	}
	if resp.Usage.TotalTokens != 20 {
		t.Errorf("expected total tokens 20, got %d", resp.Usage.TotalTokens)
	}

	if stub.lastReq.Model != "gpt-4o" {
		t.Errorf("expected model passed through, got %s", stub.lastReq.Model)
	}
	if stub.lastReq.MaxTokens != 512 {
		t.Errorf("expected max tokens 512, got %d", stub.lastReq.MaxTokens)
	}
	if stub.lastReq.Temperature != float32(0.7) {
		t.Errorf("expected temperature 0.7, got %f", stub.lastReq.Temperature)
	}
	if len(stub.lastReq.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(stub.lastReq.Messages))
	}
	if stub.lastReq.Messages[0].Role != sdk.ChatMessageRoleSystem {
		t.Errorf("expected system role preserved, got %s", stub.lastReq.Messages[0].Role)
	}
}

func TestSendCompletion_EmptyChoices(t *testing.T) {
	stub := &stubChat{resp: sdk.ChatCompletionResponse{ID: "chatcmpl-1"}}
	provider, _ := NewProviderWithClient(testConfig(), stub)
	defer provider.Close()

	req := &providers.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	}

	_, err := provider.SendCompletion(context.Background(), req)
	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError for empty choices, got %v", err)
	}
}

func TestSendCompletion_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *providers.CompletionRequest
	}{
		{"nil request", nil},
		{"missing model", &providers.CompletionRequest{
			Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		}},
		{"no messages", &providers.CompletionRequest{Model: "gpt-4o"}},
		{"unsupported role", &providers.CompletionRequest{
			Model:    "gpt-4o",
			Messages: []providers.Message{{Role: "function", Content: "hi"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubChat{resp: chatResponse("unused")}
			provider, _ := NewProviderWithClient(testConfig(), stub)
			defer provider.Close()

			_, err := provider.SendCompletion(context.Background(), tt.req)
			var validationErr *providers.ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
			if stub.calls != 0 {
				t.Errorf("expected no API call on validation failure, got %d", stub.calls)
			}
		})
	}
}

func TestSendCompletion_ErrorMapping(t *testing.T) {
	validReq := func() *providers.CompletionRequest {
		return &providers.CompletionRequest{
			Model:    "gpt-4o",
			Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		}
	}

	tests := []struct {
		name   string
		err    error
		verify func(t *testing.T, err error)
	}{
		{
			name: "auth error on 401",
			err:  &sdk.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "invalid key"},
			verify: func(t *testing.T, err error) {
				var authErr *providers.AuthError
				if !errors.As(err, &authErr) {
					t.Errorf("expected AuthError, got %v", err)
				}
			},
		},
		{
			name: "rate limit on 429",
			err:  &sdk.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"},
			verify: func(t *testing.T, err error) {
				var rateLimitErr *providers.RateLimitError
				if !errors.As(err, &rateLimitErr) {
					t.Errorf("expected RateLimitError, got %v", err)
				}
			},
		},
		{
			name: "model not found on 404",
			err:  &sdk.APIError{HTTPStatusCode: http.StatusNotFound, Message: "no such model"},
			verify: func(t *testing.T, err error) {
				var notFoundErr *providers.ModelNotFoundError
				if !errors.As(err, &notFoundErr) {
					t.Fatalf("expected ModelNotFoundError, got %v", err)
				}
				if notFoundErr.Model != "gpt-4o" {
					t.Errorf("expected model in error, got %s", notFoundErr.Model)
				}
			},
		},
		{
			name: "provider error on 500",
			err:  &sdk.APIError{HTTPStatusCode: http.StatusInternalServerError, Message: "boom"},
			verify: func(t *testing.T, err error) {
				var providerErr *providers.ProviderError
				if !errors.As(err, &providerErr) {
					t.Fatalf("expected ProviderError, got %v", err)
				}
				if providerErr.StatusCode != http.StatusInternalServerError {
					t.Errorf("expected status 500, got %d", providerErr.StatusCode)
				}
			},
		},
		{
			name: "request error wrapped",
			err:  &sdk.RequestError{HTTPStatusCode: http.StatusBadGateway, Err: errors.New("bad gateway")},
			verify: func(t *testing.T, err error) {
				var providerErr *providers.ProviderError
				if !errors.As(err, &providerErr) {
					t.Errorf("expected ProviderError, got %v", err)
				}
			},
		},
		{
			name: "timeout on deadline exceeded",
			err:  context.DeadlineExceeded,
			verify: func(t *testing.T, err error) {
				var timeoutErr *providers.TimeoutError
				if !errors.As(err, &timeoutErr) {
					t.Errorf("expected TimeoutError, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, _ := NewProviderWithClient(testConfig(), &stubChat{err: tt.err})
			defer provider.Close()

			_, err := provider.SendCompletion(context.Background(), validReq())
			tt.verify(t, err)
		})
	}
}

func TestSendCompletion_HealthTracking(t *testing.T) {
	stub := &stubChat{err: &sdk.APIError{HTTPStatusCode: http.StatusInternalServerError}}
	provider, _ := NewProviderWithClient(testConfig(), stub)
	defer provider.Close()

	req := &providers.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	}

	for i := 0; i < 3; i++ {
		provider.SendCompletion(context.Background(), req)
	}
	if provider.IsHealthy() {
		t.Error("expected provider unhealthy after 3 consecutive failures")
	}

	stub.err = nil
	stub.resp = chatResponse("recovered")
	if _, err := provider.SendCompletion(context.Background(), req); err != nil {
		t.Fatalf("SendCompletion failed: %v", err)
	}
	if !provider.IsHealthy() {
		t.Error("expected provider healthy after successful request")
	}
}

func TestNormalizeFinishReason(t *testing.T) {
	tests := []struct {
		reason   string
		expected string
	}{
		{"stop", providers.FinishReasonStop},
		{"length", providers.FinishReasonLength},
		{"content_filter", providers.FinishReasonContentFilter},
		{"tool_calls", "tool_calls"},
	}

	for _, tt := range tests {
		if got := normalizeFinishReason(tt.reason); got != tt.expected {
			t.Errorf("normalizeFinishReason(%q) = %q, expected %q", tt.reason, got, tt.expected)
		}
	}
}
