package gatewaytest

import (
	"context"
	"sync"
	"time"

	"stars-end/tribune/pkg/providers"
)

// mockBase carries the Provider identity and bookkeeping shared by the two
// mock adapters.
type mockBase struct {
	name string

	mu      sync.Mutex
	calls   int
	healthy bool
	delay   time.Duration
	closed  bool
}

func newMockBase(name string) mockBase {
	return mockBase{name: name, healthy: true}
}

// GetName returns the mock's configured name.
func (m *mockBase) GetName() string { return m.name }

// GetType returns "mock".
func (m *mockBase) GetType() string { return "mock" }

// GetConfig returns a minimal provider configuration.
func (m *mockBase) GetConfig() providers.ProviderConfig {
	return providers.ProviderConfig{Name: m.name, Type: "mock"}
}

// HealthCheck reports the scripted health state.
func (m *mockBase) HealthCheck(ctx context.Context) error {
	if !m.IsHealthy() {
		return &providers.ProviderError{Provider: m.name, Message: "scripted unhealthy"}
	}
	return nil
}

// IsHealthy reports the scripted health state.
func (m *mockBase) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// GetHealth returns a snapshot reflecting the scripted state.
func (m *mockBase) GetHealth() providers.ProviderHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return providers.ProviderHealth{
		IsHealthy:     m.healthy,
		TotalRequests: int64(m.calls),
	}
}

// SetHealthy scripts the health state.
func (m *mockBase) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// SetDelay makes every call sleep before answering, context permitting.
func (m *mockBase) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many requests the mock has served or failed.
func (m *mockBase) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *mockBase) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the mock closed.
func (m *mockBase) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// beginCall counts the call and applies the scripted delay.
func (m *mockBase) beginCall(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ctx.Err()
}

// chatScript is one scripted completion outcome.
type chatScript struct {
	resp *providers.CompletionResponse
	err  error
}

// MockChatProvider is a scriptable ChatProvider. Outcomes queued with
// RespondWith and FailWith are consumed in order; the last one repeats. A
// fresh mock answers every call with a canned success.
type MockChatProvider struct {
	mockBase

	scriptMu sync.Mutex
	script   []chatScript
	lastReq  *providers.CompletionRequest
}

// NewMockChatProvider creates a mock that succeeds with canned content.
func NewMockChatProvider(name string) *MockChatProvider {
	m := &MockChatProvider{mockBase: newMockBase(name)}
	m.RespondWith("mock response from " + name)
	return m
}

// RespondWith queues a successful completion with the given content and a
// small fixed usage block.
func (m *MockChatProvider) RespondWith(content string) *MockChatProvider {
	return m.RespondWithUsage(content, providers.TokenUsage{
		PromptTokens:     10,
		CompletionTokens: 20,
		TotalTokens:      30,
	})
}

// RespondWithUsage queues a successful completion with explicit usage.
func (m *MockChatProvider) RespondWithUsage(content string, usage providers.TokenUsage) *MockChatProvider {
	m.scriptMu.Lock()
	defer m.scriptMu.Unlock()
	m.script = append(m.script, chatScript{resp: &providers.CompletionResponse{
		ID:           "mock-" + m.name,
		Provider:     m.name,
		Model:        "mock-model",
		Content:      content,
		FinishReason: providers.FinishReasonStop,
		Usage:        usage,
		Created:      time.Now().Unix(),
	}})
	return m
}

// FailWith queues a failure.
func (m *MockChatProvider) FailWith(err error) *MockChatProvider {
	m.scriptMu.Lock()
	defer m.scriptMu.Unlock()
	m.script = append(m.script, chatScript{err: err})
	return m
}

// Reset drops the queued script. The next call fails unless new outcomes
// are queued.
func (m *MockChatProvider) Reset() {
	m.scriptMu.Lock()
	defer m.scriptMu.Unlock()
	m.script = nil
}

// LastRequest returns the most recent request the mock received.
func (m *MockChatProvider) LastRequest() *providers.CompletionRequest {
	m.scriptMu.Lock()
	defer m.scriptMu.Unlock()
	return m.lastReq
}

// SendCompletion pops the next scripted outcome.
func (m *MockChatProvider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := m.beginCall(ctx); err != nil {
		return nil, err
	}

	m.scriptMu.Lock()
	m.lastReq = req
	if len(m.script) == 0 {
		m.scriptMu.Unlock()
		return nil, &providers.ProviderError{Provider: m.name, Message: "mock script exhausted"}
	}
	next := m.script[0]
	if len(m.script) > 1 {
		m.script = m.script[1:]
	}
	m.scriptMu.Unlock()

	if next.err != nil {
		return nil, next.err
	}

	// Copy so callers mutating the response do not corrupt the script.
	resp := *next.resp
	if req != nil && req.Model != "" {
		resp.Model = req.Model
	}
	return &resp, nil
}

// searchScript is one scripted search outcome.
type searchScript struct {
	hits []providers.SearchHit
	err  error
}

// MockSearchProvider is a scriptable SearchProvider with the same queue
// semantics as MockChatProvider.
type MockSearchProvider struct {
	mockBase

	scriptMu sync.Mutex
	script   []searchScript
}

// NewMockSearchProvider creates a mock that answers every query with three
// canned hits.
func NewMockSearchProvider(name string) *MockSearchProvider {
	m := &MockSearchProvider{mockBase: newMockBase(name)}
	m.RespondWithHits(
		providers.SearchHit{Title: "First", URL: "https://example.com/1", Snippet: "first", Position: 1},
		providers.SearchHit{Title: "Second", URL: "https://example.com/2", Snippet: "second", Position: 2},
		providers.SearchHit{Title: "Third", URL: "https://example.com/3", Snippet: "third", Position: 3},
	)
	return m
}

// RespondWithHits queues a successful search response.
func (m *MockSearchProvider) RespondWithHits(hits ...providers.SearchHit) *MockSearchProvider {
	m.scriptMu.Lock()
	defer m.scriptMu.Unlock()
	m.script = append(m.script, searchScript{hits: hits})
	return m
}

// FailWith queues a failure.
func (m *MockSearchProvider) FailWith(err error) *MockSearchProvider {
	m.scriptMu.Lock()
	defer m.scriptMu.Unlock()
	m.script = append(m.script, searchScript{err: err})
	return m
}

// Reset drops the queued script. The next call fails unless new outcomes
// are queued.
func (m *MockSearchProvider) Reset() {
	m.scriptMu.Lock()
	defer m.scriptMu.Unlock()
	m.script = nil
}

// SendSearch pops the next scripted outcome.
func (m *MockSearchProvider) SendSearch(ctx context.Context, req *providers.SearchRequest) (*providers.SearchResponse, error) {
	if err := m.beginCall(ctx); err != nil {
		return nil, err
	}

	m.scriptMu.Lock()
	if len(m.script) == 0 {
		m.scriptMu.Unlock()
		return nil, &providers.ProviderError{Provider: m.name, Message: "mock script exhausted"}
	}
	next := m.script[0]
	if len(m.script) > 1 {
		m.script = m.script[1:]
	}
	m.scriptMu.Unlock()

	if next.err != nil {
		return nil, next.err
	}

	hits := make([]providers.SearchHit, len(next.hits))
	copy(hits, next.hits)
	query := ""
	if req != nil {
		query = req.Query
	}
	return &providers.SearchResponse{
		Provider: m.name,
		Query:    query,
		Hits:     hits,
	}, nil
}
