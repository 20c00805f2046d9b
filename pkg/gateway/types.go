package gateway

import (
	"time"

	"github.com/google/uuid"

	"stars-end/tribune/pkg/costs"
	"stars-end/tribune/pkg/providers"
)

// Capability identifies what kind of request a provider can serve.
type Capability string

const (
	// CapabilityChat marks chat-completion providers.
	CapabilityChat Capability = "chat"

	// CapabilitySearch marks web-search providers.
	CapabilitySearch Capability = "search"
)

// ProviderSpec is the immutable description of one candidate. Specs are
// built once by the provider factory and owned by the registry for the
// process lifetime.
type ProviderSpec struct {
	// ID is the unique candidate identifier, used in the ledger, the rate
	// limiter, logs, and metrics.
	ID string

	// Family is the candidate's primary capability.
	Family Capability

	// Model is the model identifier sent to the provider (empty for search
	// providers).
	Model string

	// Priority ranks candidates; lower is tried first. Candidates with equal
	// priority keep their declaration order.
	Priority int

	// Capabilities are the tags this candidate serves. When empty, the
	// candidate serves exactly its Family.
	Capabilities []Capability

	// Pricing is the candidate's per-unit cost model.
	Pricing costs.Pricing
}

// Supports reports whether the spec serves the given capability.
func (s ProviderSpec) Supports(capability Capability) bool {
	if len(s.Capabilities) == 0 {
		return s.Family == capability
	}
	for _, c := range s.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Candidate binds a ProviderSpec to its live adapter. Exactly the adapters
// matching the spec's capabilities are set.
type Candidate struct {
	Spec   ProviderSpec
	Chat   providers.ChatProvider
	Search providers.SearchProvider
}

// InvocationRequest is one logical request to the engine. The zero value of
// optional fields means "unset".
type InvocationRequest struct {
	// ID correlates the request across logs, ledger entries, and metrics.
	// Generated when absent.
	ID string

	// Capability selects the candidate pool. Defaults to CapabilityChat.
	Capability Capability

	// Messages is the prompt payload.
	Messages []providers.Message

	// Sampling knobs, passed through to the serving adapter.
	Temperature float64
	MaxTokens   int
	TopP        float64
	Stop        []string

	// BudgetCeiling optionally caps the estimated cost of this single
	// request, independently of the shared budget. Zero means no override.
	BudgetCeiling float64

	// Timeout bounds each provider attempt. Zero means the context's
	// deadline alone applies.
	Timeout time.Duration

	// Metadata is carried through to the adapter request.
	Metadata map[string]string
}

// normalize fills generated fields in place so the caller can observe the
// assigned request ID.
func (r *InvocationRequest) normalize() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Capability == "" {
		r.Capability = CapabilityChat
	}
}

// AttemptStatus says how a candidate figured in an invocation.
type AttemptStatus string

const (
	// AttemptBudgetSkipped: the estimated cost was unaffordable; the
	// provider was not called.
	AttemptBudgetSkipped AttemptStatus = "budget_skipped"

	// AttemptRateLimited: the rate limiter denied admission; the provider
	// was not called.
	AttemptRateLimited AttemptStatus = "rate_limited"

	// AttemptUnhealthy: the provider's circuit breaker was open; the
	// provider was not called.
	AttemptUnhealthy AttemptStatus = "unhealthy"

	// AttemptFailed: the provider was called and failed transiently.
	AttemptFailed AttemptStatus = "failed"

	// AttemptSucceeded: the provider served the request.
	AttemptSucceeded AttemptStatus = "succeeded"
)

// Attempt is one entry in the per-request candidate trail.
type Attempt struct {
	// Provider is the candidate ID.
	Provider string

	// Model is the candidate's model identifier.
	Model string

	// Status says how the candidate figured in the walk.
	Status AttemptStatus

	// Err is the attempt error for failed attempts.
	Err error

	// RetryAfter is the suggested wait for rate-limited skips.
	RetryAfter time.Duration

	// EstimatedCost is the pre-call cost estimate for this candidate.
	EstimatedCost float64

	// Elapsed is the wall time of the provider call, zero for skips.
	Elapsed time.Duration
}

// InvocationOutcome is the result of a served invocation.
type InvocationOutcome struct {
	// RequestID echoes the request's correlation ID.
	RequestID string

	// Provider is the candidate that served the request.
	Provider string

	// Model is the model that produced the response.
	Model string

	// Response is the normalized provider response.
	Response *providers.CompletionResponse

	// Cost is the amount recorded in the ledger for this request.
	Cost float64

	// Elapsed is the total wall time of the invocation, all attempts
	// included.
	Elapsed time.Duration

	// Attempts is the full candidate trail, the serving attempt last.
	Attempts []Attempt
}
