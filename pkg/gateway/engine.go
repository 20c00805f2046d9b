package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stars-end/tribune/pkg/costs"
	"stars-end/tribune/pkg/providers"
	"stars-end/tribune/pkg/ratelimit"
)

// Admitter is the rate-limit surface the engine consults before each
// attempt. *ratelimit.Limiter satisfies it.
type Admitter interface {
	TryAcquire(providerID string) ratelimit.Decision
}

// EngineConfig wires an Engine. Registry and Budget are required; the rest
// default to permissive or shared instances.
type EngineConfig struct {
	// Registry is the ordered candidate list.
	Registry *Registry

	// Budget is the shared cost ledger consulted before and charged after
	// every paid call.
	Budget costs.Budget

	// Limiter admits or defers candidates. Defaults to an empty limiter
	// that admits everything.
	Limiter Admitter

	// Estimator converts prompts to token estimates for affordability
	// checks. Defaults to the standard character-ratio estimator.
	Estimator *costs.Estimator

	// Pricing resolves model-default rates for specs that carry none.
	// Optional; a spec without rates and without a table prices at zero.
	Pricing *costs.Table

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics defaults to the shared collectors.
	Metrics *Metrics

	// WaitForTopCandidate makes the engine sleep out a short rate-limit
	// denial on the highest-priority candidate instead of skipping it,
	// trading latency for hit rate on the preferred provider.
	WaitForTopCandidate bool

	// MaxTopCandidateWait bounds that sleep. Denials suggesting a longer
	// wait are skipped as usual. Defaults to two seconds.
	MaxTopCandidateWait time.Duration
}

const defaultMaxTopCandidateWait = 2 * time.Second

// Engine orchestrates one logical request across the ranked candidate list:
// per-candidate budget and rate checks, first success wins, typed exhaustion
// otherwise.
type Engine struct {
	registry  *Registry
	budget    costs.Budget
	limiter   Admitter
	estimator *costs.Estimator
	pricing   *costs.Table
	logger    *slog.Logger
	metrics   *Metrics

	waitForTop bool
	maxTopWait time.Duration
}

// NewEngine creates an engine from the config.
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("engine registry is required")
	}
	if config.Budget == nil {
		return nil, fmt.Errorf("engine budget is required")
	}

	limiter := config.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter()
	}
	estimator := config.Estimator
	if estimator == nil {
		estimator = costs.NewEstimator()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = SharedMetrics()
	}
	maxTopWait := config.MaxTopCandidateWait
	if maxTopWait <= 0 {
		maxTopWait = defaultMaxTopCandidateWait
	}

	return &Engine{
		registry:   config.Registry,
		budget:     config.Budget,
		limiter:    limiter,
		estimator:  estimator,
		pricing:    config.Pricing,
		logger:     logger.With("component", "gateway.engine"),
		metrics:    metrics,
		waitForTop: config.WaitForTopCandidate,
		maxTopWait: maxTopWait,
	}, nil
}

// Invoke runs one logical completion request across the candidates for the
// request's capability, in priority order. The first success returns
// immediately; a provider rejection of the request itself aborts the walk;
// anything else is recorded in the attempt trail and classified when the
// walk ends with nothing served.
func (e *Engine) Invoke(ctx context.Context, req *InvocationRequest) (*InvocationOutcome, error) {
	if req == nil {
		return nil, fmt.Errorf("invocation request cannot be nil")
	}
	req.normalize()
	started := time.Now()

	candidates := chatCandidates(e.registry.CandidatesFor(req.Capability))
	if len(candidates) == 0 {
		err := &NoCandidatesError{Capability: req.Capability}
		e.metrics.RecordInvocation(req.Capability, FailureKind(err))
		return nil, err
	}

	logger := e.logger.With("request_id", req.ID, "capability", string(req.Capability))

	attempts := make([]Attempt, 0, len(candidates))
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		spec := candidate.Spec

		if !candidate.Chat.IsHealthy() {
			attempts = append(attempts, Attempt{
				Provider: spec.ID,
				Model:    spec.Model,
				Status:   AttemptUnhealthy,
			})
			e.metrics.RecordAttempt(spec.ID, AttemptUnhealthy, 0)
			logger.Debug("candidate skipped: circuit open", "provider", spec.ID)
			continue
		}

		pricing := e.pricingFor(spec)
		estCost := pricing.EstimateCompletion(e.estimateTokens(req))

		if !e.affordable(req, estCost) {
			attempts = append(attempts, Attempt{
				Provider:      spec.ID,
				Model:         spec.Model,
				Status:        AttemptBudgetSkipped,
				EstimatedCost: estCost,
			})
			e.metrics.RecordAttempt(spec.ID, AttemptBudgetSkipped, 0)
			logger.Debug("candidate skipped: unaffordable",
				"provider", spec.ID,
				"estimated_cost", estCost,
				"remaining", e.budget.Remaining(),
			)
			continue
		}

		decision := e.limiter.TryAcquire(spec.ID)
		if !decision.Allowed && i == 0 && e.waitForTop &&
			decision.RetryAfter > 0 && decision.RetryAfter <= e.maxTopWait {
			logger.Debug("waiting out rate limit on top candidate",
				"provider", spec.ID,
				"wait", decision.RetryAfter,
			)
			if err := sleepContext(ctx, decision.RetryAfter); err != nil {
				return nil, err
			}
			decision = e.limiter.TryAcquire(spec.ID)
		}
		if !decision.Allowed {
			attempts = append(attempts, Attempt{
				Provider:      spec.ID,
				Model:         spec.Model,
				Status:        AttemptRateLimited,
				RetryAfter:    decision.RetryAfter,
				EstimatedCost: estCost,
			})
			e.metrics.RecordAttempt(spec.ID, AttemptRateLimited, 0)
			logger.Debug("candidate skipped: rate limited",
				"provider", spec.ID,
				"retry_after", decision.RetryAfter,
			)
			continue
		}

		resp, elapsed, err := e.attempt(ctx, candidate, req)
		if err != nil {
			if providers.IsPermanent(err) {
				rejected := &RequestRejectedError{Provider: spec.ID, Cause: err}
				e.metrics.RecordInvocation(req.Capability, FailureKind(rejected))
				logger.Warn("request rejected by provider",
					"provider", spec.ID,
					"error", err,
				)
				return nil, rejected
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				// Caller cancellation, not a provider verdict. Nothing was
				// priced, so the ledger stays untouched.
				return nil, ctxErr
			}
			attempts = append(attempts, Attempt{
				Provider:      spec.ID,
				Model:         spec.Model,
				Status:        AttemptFailed,
				Err:           err,
				EstimatedCost: estCost,
				Elapsed:       elapsed,
			})
			e.metrics.RecordAttempt(spec.ID, AttemptFailed, elapsed)
			logger.Warn("provider attempt failed",
				"provider", spec.ID,
				"elapsed", elapsed,
				"error", err,
			)
			continue
		}

		cost := actualCost(pricing, resp, estCost)
		total := e.budget.Record(spec.ID, req.ID, cost)

		attempts = append(attempts, Attempt{
			Provider:      spec.ID,
			Model:         spec.Model,
			Status:        AttemptSucceeded,
			EstimatedCost: estCost,
			Elapsed:       elapsed,
		})
		e.metrics.RecordAttempt(spec.ID, AttemptSucceeded, elapsed)
		e.metrics.RecordCost(spec.ID, cost)
		e.metrics.SetBudgetRemaining(e.budget.Remaining())
		e.metrics.RecordInvocation(req.Capability, outcomeSuccess)

		logger.Info("invocation served",
			"provider", spec.ID,
			"model", resp.Model,
			"cost", cost,
			"total_spent", total,
			"elapsed", elapsed,
			"attempts", len(attempts),
		)

		return &InvocationOutcome{
			RequestID: req.ID,
			Provider:  spec.ID,
			Model:     resp.Model,
			Response:  resp,
			Cost:      cost,
			Elapsed:   time.Since(started),
			Attempts:  attempts,
		}, nil
	}

	err := ClassifyExhaustion(req.Capability, attempts, e.budget.Remaining())
	e.metrics.RecordInvocation(req.Capability, FailureKind(err))
	logger.Warn("all candidates exhausted",
		"candidates", len(candidates),
		"kind", FailureKind(err),
	)
	return nil, err
}

// attempt issues the request to one candidate under the per-attempt timeout.
func (e *Engine) attempt(ctx context.Context, candidate Candidate, req *InvocationRequest) (*providers.CompletionResponse, time.Duration, error) {
	attemptCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["request_id"] = req.ID

	creq := &providers.CompletionRequest{
		Model:       candidate.Spec.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Metadata:    metadata,
	}

	start := time.Now()
	resp, err := candidate.Chat.SendCompletion(attemptCtx, creq)
	return resp, time.Since(start), err
}

// affordable checks the shared budget and the per-request ceiling override.
func (e *Engine) affordable(req *InvocationRequest, estCost float64) bool {
	if req.BudgetCeiling > 0 && estCost > req.BudgetCeiling {
		return false
	}
	return e.budget.CanAfford(estCost)
}

// pricingFor resolves a candidate's rates: its own when set, the
// model-default table otherwise.
func (e *Engine) pricingFor(spec ProviderSpec) costs.Pricing {
	if !spec.Pricing.IsZero() {
		return spec.Pricing
	}
	if e.pricing != nil {
		return e.pricing.Lookup(spec.Model)
	}
	return costs.Pricing{}
}

// estimateTokens produces the pre-call token estimate for the request. A
// MaxTokens cap bounds the completion estimate, since the provider cannot
// bill past it.
func (e *Engine) estimateTokens(req *InvocationRequest) costs.TokenEstimate {
	parts := make([]string, len(req.Messages))
	for i, m := range req.Messages {
		parts[i] = m.Content
	}
	est := e.estimator.Estimate(parts)
	if req.MaxTokens > 0 && req.MaxTokens < est.CompletionTokens {
		est.CompletionTokens = req.MaxTokens
	}
	return est
}

// actualCost prices a served response from returned usage when the provider
// reported any, the pre-call estimate otherwise.
func actualCost(pricing costs.Pricing, resp *providers.CompletionResponse, estCost float64) float64 {
	if resp.Usage.TotalTokens > 0 {
		return pricing.CompletionCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	return estCost
}

// chatCandidates filters to candidates that can serve completions.
func chatCandidates(candidates []Candidate) []Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.Chat != nil {
			out = append(out, c)
		}
	}
	return out
}

// sleepContext sleeps for d unless the context ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
