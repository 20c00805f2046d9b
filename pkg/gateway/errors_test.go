package gateway

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// ===== Sentinel Matching =====

func TestErrorSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"no candidates", &NoCandidatesError{Capability: CapabilityChat}, ErrNoCandidates},
		{"budget exceeded", &BudgetExceededError{Capability: CapabilityChat}, ErrBudgetExceeded},
		{"rate limited", &RateLimitedError{RetryAfter: time.Second}, ErrRateLimited},
		{"all failed", &AllProvidersFailedError{Capability: CapabilityChat}, ErrAllProvidersFailed},
		{"request rejected", &RequestRejectedError{Provider: "p"}, ErrRequestRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("Expected errors.Is(%T, sentinel) to be true", tt.err)
			}
			// Wrapping must not break matching.
			wrapped := fmt.Errorf("invoke: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("Expected wrapped %T to still match its sentinel", tt.err)
			}
		})
	}
}

func TestErrorSentinelsAreDistinct(t *testing.T) {
	budgetErr := &BudgetExceededError{Capability: CapabilityChat}
	if errors.Is(budgetErr, ErrAllProvidersFailed) {
		t.Error("Expected budget error not to match all-providers-failed")
	}
	if errors.Is(budgetErr, ErrRateLimited) {
		t.Error("Expected budget error not to match rate-limited")
	}

	rateErr := &RateLimitedError{}
	if errors.Is(rateErr, ErrBudgetExceeded) {
		t.Error("Expected rate-limited error not to match budget")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	allFailed := &AllProvidersFailedError{LastErr: cause}
	if !errors.Is(allFailed, cause) {
		t.Error("Expected AllProvidersFailedError to unwrap to its last error")
	}

	rejected := &RequestRejectedError{Provider: "p", Cause: cause}
	if !errors.Is(rejected, cause) {
		t.Error("Expected RequestRejectedError to unwrap to its cause")
	}
}

// ===== Error Text =====

func TestErrorMessages(t *testing.T) {
	attempts := []Attempt{
		{Provider: "anthropic", Status: AttemptFailed},
		{Provider: "openai", Status: AttemptFailed},
	}

	allFailed := &AllProvidersFailedError{
		Capability: CapabilityChat,
		Attempts:   attempts,
		LastErr:    errors.New("boom"),
	}
	msg := allFailed.Error()
	if !strings.Contains(msg, "anthropic, openai") {
		t.Errorf("Expected attempted providers in message, got %q", msg)
	}
	if !strings.Contains(msg, "boom") {
		t.Errorf("Expected last error in message, got %q", msg)
	}

	noCandidates := &NoCandidatesError{Capability: CapabilitySearch}
	if !strings.Contains(noCandidates.Error(), `"search"`) {
		t.Errorf("Expected capability in message, got %q", noCandidates.Error())
	}

	empty := &BudgetExceededError{Capability: CapabilityChat}
	if !strings.Contains(empty.Error(), "none") {
		t.Errorf("Expected empty attempt list rendered as none, got %q", empty.Error())
	}
}

// ===== Exhaustion Classification =====

func TestClassifyExhaustionAllBudgetSkipped(t *testing.T) {
	// Every candidate unaffordable must report budget exhaustion, not a
	// provider failure.
	attempts := []Attempt{
		{Provider: "a", Status: AttemptBudgetSkipped},
		{Provider: "b", Status: AttemptBudgetSkipped},
	}

	err := ClassifyExhaustion(CapabilityChat, attempts, 0.25)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("Expected budget-exceeded classification, got %v", err)
	}
	if errors.Is(err, ErrAllProvidersFailed) {
		t.Error("Expected budget classification not to match all-providers-failed")
	}

	var budgetErr *BudgetExceededError
	if !errors.As(err, &budgetErr) {
		t.Fatal("Expected *BudgetExceededError")
	}
	if budgetErr.Remaining != 0.25 {
		t.Errorf("Expected remaining 0.25 carried, got %f", budgetErr.Remaining)
	}
	if len(budgetErr.Attempts) != 2 {
		t.Errorf("Expected 2 attempts carried, got %d", len(budgetErr.Attempts))
	}
}

func TestClassifyExhaustionAllRateLimited(t *testing.T) {
	attempts := []Attempt{
		{Provider: "a", Status: AttemptRateLimited, RetryAfter: 5 * time.Second},
		{Provider: "b", Status: AttemptRateLimited, RetryAfter: 2 * time.Second},
		{Provider: "c", Status: AttemptRateLimited, RetryAfter: 9 * time.Second},
	}

	err := ClassifyExhaustion(CapabilityChat, attempts, 10)
	var rateErr *RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatalf("Expected *RateLimitedError, got %v", err)
	}
	if rateErr.RetryAfter != 2*time.Second {
		t.Errorf("Expected minimum retry-after 2s, got %s", rateErr.RetryAfter)
	}
}

func TestClassifyExhaustionAnyFailureWins(t *testing.T) {
	// A single real attempt error classifies the whole walk as provider
	// failure even when the other candidates were skipped.
	cause := errors.New("upstream 500")
	attempts := []Attempt{
		{Provider: "a", Status: AttemptBudgetSkipped},
		{Provider: "b", Status: AttemptFailed, Err: cause},
		{Provider: "c", Status: AttemptRateLimited, RetryAfter: time.Second},
	}

	err := ClassifyExhaustion(CapabilityChat, attempts, 10)
	var allFailed *AllProvidersFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("Expected *AllProvidersFailedError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected classification to carry the attempt error")
	}
}

func TestClassifyExhaustionMixedSkips(t *testing.T) {
	// Budget skip plus rate skip with no real attempt: neither pause policy
	// should fire, so the conservative all-failed report wins.
	attempts := []Attempt{
		{Provider: "a", Status: AttemptBudgetSkipped},
		{Provider: "b", Status: AttemptRateLimited, RetryAfter: time.Second},
	}

	err := ClassifyExhaustion(CapabilityChat, attempts, 10)
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Errorf("Expected all-providers-failed for mixed skips, got %v", err)
	}
}

func TestClassifyExhaustionEmptyTrail(t *testing.T) {
	err := ClassifyExhaustion(CapabilityChat, nil, 10)
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Errorf("Expected all-providers-failed for empty trail, got %v", err)
	}
}

// ===== Failure Kinds =====

func TestFailureKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"no candidates", &NoCandidatesError{}, "no_candidates"},
		{"budget", &BudgetExceededError{}, "budget_exceeded"},
		{"rate limited", &RateLimitedError{}, "rate_limited"},
		{"rejected", &RequestRejectedError{}, "request_rejected"},
		{"all failed", &AllProvidersFailedError{}, "all_providers_failed"},
		{"unknown", errors.New("something else"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureKind(tt.err); got != tt.expected {
				t.Errorf("Expected kind %q, got %q", tt.expected, got)
			}
		})
	}
}
