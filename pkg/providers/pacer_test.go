package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewPacer_Defaults(t *testing.T) {
	pacer := NewPacer(0, 0)
	if pacer.Rate() != 60000 {
		t.Errorf("expected default budget 60000 TPM, got %f", pacer.Rate())
	}

	clamped := NewPacer(10000, 5000)
	if clamped.maxTPM != 10000 {
		t.Errorf("expected max clamped to initial, got %f", clamped.maxTPM)
	}
}

func TestPacer_BackoffOnRateLimit(t *testing.T) {
	pacer := NewPacer(10000, 20000)

	pacer.Observe(&RateLimitError{Provider: "anthropic"})
	if pacer.Rate() != 5000 {
		t.Errorf("expected budget halved to 5000, got %f", pacer.Rate())
	}

	// Floor at a tenth of the initial budget.
	for i := 0; i < 20; i++ {
		pacer.Observe(&RateLimitError{Provider: "anthropic"})
	}
	if pacer.Rate() != 1000 {
		t.Errorf("expected budget floored at 1000, got %f", pacer.Rate())
	}
}

func TestPacer_ProbeOnSuccess(t *testing.T) {
	pacer := NewPacer(10000, 20000)

	pacer.Observe(&RateLimitError{Provider: "anthropic"})
	dropped := pacer.Rate()

	pacer.Observe(nil)
	if pacer.Rate() <= dropped {
		t.Errorf("expected budget to recover above %f, got %f", dropped, pacer.Rate())
	}

	// Recovery is additive: one success recovers 5% of initial.
	expected := dropped + 500
	if pacer.Rate() != expected {
		t.Errorf("expected budget %f after one probe, got %f", expected, pacer.Rate())
	}
}

func TestPacer_ProbeCappedAtMax(t *testing.T) {
	pacer := NewPacer(10000, 10500)

	for i := 0; i < 10; i++ {
		pacer.Observe(nil)
	}
	if pacer.Rate() != 10500 {
		t.Errorf("expected budget capped at 10500, got %f", pacer.Rate())
	}
}

func TestPacer_OtherErrorsLeaveBudget(t *testing.T) {
	pacer := NewPacer(10000, 20000)

	pacer.Observe(&TimeoutError{Provider: "anthropic", Timeout: time.Minute})
	pacer.Observe(errors.New("connection refused"))

	if pacer.Rate() != 10000 {
		t.Errorf("expected budget unchanged by non-rate-limit errors, got %f", pacer.Rate())
	}
}

func TestPacer_WaitRespectsContext(t *testing.T) {
	// Tiny budget: the first wait drains the burst, the second must block.
	pacer := NewPacer(60, 60)
	if err := pacer.Wait(context.Background(), 60); err != nil {
		t.Fatalf("expected first wait to pass, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := pacer.Wait(ctx, 60)
	if err == nil {
		t.Error("expected wait to fail when context expires before capacity")
	}
}

type pacerStubChat struct {
	*BaseProvider
	resp *CompletionResponse
	err  error
}

func (s *pacerStubChat) SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return s.resp, s.err
}

func (s *pacerStubChat) HealthCheck(ctx context.Context) error { return nil }

func TestWithPacing(t *testing.T) {
	stub := &pacerStubChat{
		BaseProvider: NewBaseProvider(ProviderConfig{Name: "stub", Type: "generic"}),
		resp:         &CompletionResponse{Content: "ok"},
	}
	pacer := NewPacer(100000, 100000)

	paced := WithPacing(stub, pacer)

	resp, err := paced.SendCompletion(context.Background(), &CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("expected paced completion to succeed, got %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected wrapped response, got %q", resp.Content)
	}

	// Provider identity passes through the wrapper.
	if paced.GetName() != "stub" {
		t.Errorf("expected wrapped provider name, got %q", paced.GetName())
	}
}

func TestWithPacing_RateLimitShrinksBudget(t *testing.T) {
	stub := &pacerStubChat{
		BaseProvider: NewBaseProvider(ProviderConfig{Name: "stub", Type: "generic"}),
		err:          &RateLimitError{Provider: "stub"},
	}
	pacer := NewPacer(100000, 100000)
	paced := WithPacing(stub, pacer)

	_, err := paced.SendCompletion(context.Background(), &CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected rate limit error to pass through")
	}
	if pacer.Rate() != 50000 {
		t.Errorf("expected budget halved after upstream 429, got %f", pacer.Rate())
	}
}

func TestWithPacing_NilPasses(t *testing.T) {
	stub := &pacerStubChat{
		BaseProvider: NewBaseProvider(ProviderConfig{Name: "stub"}),
	}

	if got := WithPacing(stub, nil); got != ChatProvider(stub) {
		t.Error("expected nil pacer to return the provider unwrapped")
	}
	if got := WithPacing(nil, NewPacer(1000, 1000)); got != nil {
		t.Error("expected nil provider to stay nil")
	}
}

func TestEstimatePacingTokens(t *testing.T) {
	empty := &CompletionRequest{Model: "m"}
	if got := estimatePacingTokens(empty); got != 500 {
		t.Errorf("expected floor estimate 500 for empty request, got %d", got)
	}

	req := &CompletionRequest{
		Model: "m",
		Messages: []Message{
			{Role: RoleUser, Content: "abcdef"},
			{Role: RoleAssistant, Content: "ghi"},
		},
	}
	if got := estimatePacingTokens(req); got != 3+500 {
		t.Errorf("expected 9 chars to estimate 503 tokens, got %d", got)
	}
}
