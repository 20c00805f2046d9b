package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Terminal gateway errors that can be checked with errors.Is().
var (
	// ErrNoCandidates is returned when no provider is configured for the
	// requested capability. Fatal, not retryable.
	ErrNoCandidates = errors.New("no candidate providers configured")

	// ErrBudgetExceeded is returned when every remaining candidate was
	// unaffordable. Callers should pause work rather than busy-retry.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrRateLimited is returned when every candidate was under rate-limit
	// backpressure. Callers should back off for the suggested wait.
	ErrRateLimited = errors.New("all providers rate limited")

	// ErrAllProvidersFailed is returned when every candidate was attempted
	// or skipped and none succeeded. Callers may retry the whole request
	// later.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrRequestRejected is returned when a provider rejected the request
	// itself. Retrying against other providers cannot help.
	ErrRequestRejected = errors.New("request rejected by provider")
)

// NoCandidatesError reports a capability with no configured providers.
type NoCandidatesError struct {
	// Capability is the requested capability.
	Capability Capability
}

// Error implements the error interface.
func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("no candidate providers configured for capability %q", e.Capability)
}

// Is implements error matching for errors.Is().
func (e *NoCandidatesError) Is(target error) bool {
	return target == ErrNoCandidates
}

// BudgetExceededError reports that every candidate was unaffordable.
type BudgetExceededError struct {
	// Capability is the requested capability.
	Capability Capability

	// Remaining is the budget left when the request was rejected.
	Remaining float64

	// Attempts is the per-candidate trail.
	Attempts []Attempt
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded for capability %q (remaining %.6f, candidates: %s)",
		e.Capability, e.Remaining, attemptProviders(e.Attempts))
}

// Is implements error matching for errors.Is().
func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// RateLimitedError reports that every candidate was under backpressure.
type RateLimitedError struct {
	// RetryAfter is the minimum suggested wait across candidates.
	RetryAfter time.Duration

	// Attempts is the per-candidate trail.
	Attempts []Attempt
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("all providers rate limited (retry after %s, candidates: %s)",
		e.RetryAfter, attemptProviders(e.Attempts))
}

// Is implements error matching for errors.Is().
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// AllProvidersFailedError reports an exhausted candidate walk.
type AllProvidersFailedError struct {
	// Capability is the requested capability.
	Capability Capability

	// Attempts is the per-candidate trail with the failure reasons.
	Attempts []Attempt

	// LastErr is the error from the last attempted candidate.
	LastErr error
}

// Error implements the error interface.
func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed for capability %q (attempted: %s, last error: %v)",
		e.Capability, attemptProviders(e.Attempts), e.LastErr)
}

// Is implements error matching for errors.Is().
func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

// Unwrap returns the wrapped error for error chain traversal.
func (e *AllProvidersFailedError) Unwrap() error {
	return e.LastErr
}

// RequestRejectedError reports a non-transient provider rejection of the
// request shape.
type RequestRejectedError struct {
	// Provider is the candidate that rejected the request.
	Provider string

	// Cause is the provider's rejection.
	Cause error
}

// Error implements the error interface.
func (e *RequestRejectedError) Error() string {
	return fmt.Sprintf("request rejected by provider %q: %v", e.Provider, e.Cause)
}

// Is implements error matching for errors.Is().
func (e *RequestRejectedError) Is(target error) bool {
	return target == ErrRequestRejected
}

// Unwrap returns the wrapped error for error chain traversal.
func (e *RequestRejectedError) Unwrap() error {
	return e.Cause
}

// ClassifyExhaustion turns a fully walked attempt trail into the terminal
// error for the request. The rule: any real attempt error means all
// providers failed; otherwise a trail of pure budget skips means the budget
// is exhausted; a trail of pure rate-limit skips means backpressure, with
// the minimum suggested wait; a mix of skip kinds, or any unhealthy skips,
// reports all providers failed so neither pause policy fires spuriously.
func ClassifyExhaustion(capability Capability, attempts []Attempt, remaining float64) error {
	var (
		budgetSkips int
		rateSkips   int
		failures    int
		lastErr     error
		minWait     time.Duration
	)

	for _, a := range attempts {
		switch a.Status {
		case AttemptBudgetSkipped:
			budgetSkips++
		case AttemptRateLimited:
			rateSkips++
			if minWait == 0 || (a.RetryAfter > 0 && a.RetryAfter < minWait) {
				minWait = a.RetryAfter
			}
		case AttemptFailed:
			failures++
			if a.Err != nil {
				lastErr = a.Err
			}
		}
	}

	switch {
	case failures > 0:
		return &AllProvidersFailedError{Capability: capability, Attempts: attempts, LastErr: lastErr}
	case budgetSkips == len(attempts) && budgetSkips > 0:
		return &BudgetExceededError{Capability: capability, Remaining: remaining, Attempts: attempts}
	case rateSkips == len(attempts) && rateSkips > 0:
		return &RateLimitedError{RetryAfter: minWait, Attempts: attempts}
	default:
		return &AllProvidersFailedError{Capability: capability, Attempts: attempts}
	}
}

// FailureKind names the taxonomy class of a terminal gateway error, for
// metrics labels and envelope metadata.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, ErrBudgetExceeded):
		return "budget_exceeded"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrRequestRejected):
		return "request_rejected"
	case errors.Is(err, ErrAllProvidersFailed):
		return "all_providers_failed"
	default:
		return "error"
	}
}

func attemptProviders(attempts []Attempt) string {
	if len(attempts) == 0 {
		return "none"
	}
	names := make([]string, len(attempts))
	for i, a := range attempts {
		names[i] = a.Provider
	}
	return strings.Join(names, ", ")
}
