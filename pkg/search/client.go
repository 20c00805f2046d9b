package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stars-end/tribune/pkg/costs"
	"stars-end/tribune/pkg/gateway"
	"stars-end/tribune/pkg/providers"
	"stars-end/tribune/pkg/ratelimit"
	"stars-end/tribune/pkg/search/cache"
)

// Config wires a Client. Registry and Budget are required; the rest default
// to permissive or shared instances. Cache is optional: without one every
// query walks the candidates.
type Config struct {
	// Registry is the ordered candidate list shared with the engine.
	Registry *gateway.Registry

	// Budget is the shared cost ledger.
	Budget costs.Budget

	// Limiter admits or defers candidates. Defaults to an empty limiter
	// that admits everything.
	Limiter gateway.Admitter

	// Cache is the injected cache collaborator. Nil disables caching.
	Cache cache.Cache

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics defaults to the shared collectors.
	Metrics *gateway.Metrics
}

// Client walks search-capable candidates with the same budget and rate
// checks as the invocation engine, fronted by the cache collaborator.
type Client struct {
	registry *gateway.Registry
	budget   costs.Budget
	limiter  gateway.Admitter
	cache    cache.Cache
	logger   *slog.Logger
	metrics  *gateway.Metrics
}

// NewClient creates a search client from the config.
func NewClient(config Config) (*Client, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("search registry is required")
	}
	if config.Budget == nil {
		return nil, fmt.Errorf("search budget is required")
	}

	limiter := config.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = gateway.SharedMetrics()
	}

	return &Client{
		registry: config.Registry,
		budget:   config.Budget,
		limiter:  limiter,
		cache:    config.Cache,
		logger:   logger.With("component", "search.client"),
		metrics:  metrics,
	}, nil
}

// Search serves one logical query. The cache is consulted first (unless the
// query asks for fresh results); a hit short-circuits with no cost or
// rate-limit consumption. A miss walks the search candidates in priority
// order with per-candidate budget and rate checks, and a success is written
// back to the cache before returning.
func (c *Client) Search(ctx context.Context, query *Query) (*Result, error) {
	if query == nil || query.Text == "" {
		return nil, fmt.Errorf("search query text cannot be empty")
	}
	query.normalize()
	started := time.Now()

	key := NormalizeQuery(query.Text)
	logger := c.logger.With("query_id", query.ID, "key", key)

	if c.cache != nil && !query.Fresh {
		if entry := c.cacheGet(ctx, key, logger); entry != nil {
			logger.Debug("search served from cache", "provider", entry.Provider)
			return &Result{
				QueryID:  query.ID,
				Query:    query.Text,
				Key:      key,
				Hits:     entry.Hits,
				Provider: entry.Provider,
				CacheHit: true,
				Elapsed:  time.Since(started),
			}, nil
		}
	}

	candidates := searchCandidates(c.registry.CandidatesFor(gateway.CapabilitySearch))
	if len(candidates) == 0 {
		err := &gateway.NoCandidatesError{Capability: gateway.CapabilitySearch}
		c.metrics.RecordInvocation(gateway.CapabilitySearch, gateway.FailureKind(err))
		return nil, err
	}

	attempts := make([]gateway.Attempt, 0, len(candidates))
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		spec := candidate.Spec

		if !candidate.Search.IsHealthy() {
			attempts = append(attempts, gateway.Attempt{
				Provider: spec.ID,
				Status:   gateway.AttemptUnhealthy,
			})
			c.metrics.RecordAttempt(spec.ID, gateway.AttemptUnhealthy, 0)
			logger.Debug("search candidate skipped: circuit open", "provider", spec.ID)
			continue
		}

		estCost := spec.Pricing.QueryCost()

		if !c.budget.CanAfford(estCost) {
			attempts = append(attempts, gateway.Attempt{
				Provider:      spec.ID,
				Status:        gateway.AttemptBudgetSkipped,
				EstimatedCost: estCost,
			})
			c.metrics.RecordAttempt(spec.ID, gateway.AttemptBudgetSkipped, 0)
			logger.Debug("search candidate skipped: unaffordable",
				"provider", spec.ID,
				"estimated_cost", estCost,
				"remaining", c.budget.Remaining(),
			)
			continue
		}

		decision := c.limiter.TryAcquire(spec.ID)
		if !decision.Allowed {
			attempts = append(attempts, gateway.Attempt{
				Provider:      spec.ID,
				Status:        gateway.AttemptRateLimited,
				RetryAfter:    decision.RetryAfter,
				EstimatedCost: estCost,
			})
			c.metrics.RecordAttempt(spec.ID, gateway.AttemptRateLimited, 0)
			logger.Debug("search candidate skipped: rate limited",
				"provider", spec.ID,
				"retry_after", decision.RetryAfter,
			)
			continue
		}

		resp, elapsed, err := c.attempt(ctx, candidate, query)
		if err != nil {
			if providers.IsPermanent(err) {
				rejected := &gateway.RequestRejectedError{Provider: spec.ID, Cause: err}
				c.metrics.RecordInvocation(gateway.CapabilitySearch, gateway.FailureKind(rejected))
				logger.Warn("search rejected by provider", "provider", spec.ID, "error", err)
				return nil, rejected
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			attempts = append(attempts, gateway.Attempt{
				Provider:      spec.ID,
				Status:        gateway.AttemptFailed,
				Err:           err,
				EstimatedCost: estCost,
				Elapsed:       elapsed,
			})
			c.metrics.RecordAttempt(spec.ID, gateway.AttemptFailed, elapsed)
			logger.Warn("search provider attempt failed",
				"provider", spec.ID,
				"elapsed", elapsed,
				"error", err,
			)
			continue
		}

		total := c.budget.Record(spec.ID, query.ID, estCost)

		attempts = append(attempts, gateway.Attempt{
			Provider:      spec.ID,
			Status:        gateway.AttemptSucceeded,
			EstimatedCost: estCost,
			Elapsed:       elapsed,
		})
		c.metrics.RecordAttempt(spec.ID, gateway.AttemptSucceeded, elapsed)
		c.metrics.RecordCost(spec.ID, estCost)
		c.metrics.SetBudgetRemaining(c.budget.Remaining())
		c.metrics.RecordInvocation(gateway.CapabilitySearch, "success")

		if c.cache != nil {
			c.cachePut(ctx, key, &cache.Entry{
				Query:     query.Text,
				Provider:  spec.ID,
				Hits:      resp.Hits,
				CreatedAt: time.Now(),
			}, logger)
		}

		logger.Info("search served",
			"provider", spec.ID,
			"hits", len(resp.Hits),
			"cost", estCost,
			"total_spent", total,
			"elapsed", elapsed,
			"attempts", len(attempts),
		)

		return &Result{
			QueryID:  query.ID,
			Query:    query.Text,
			Key:      key,
			Hits:     resp.Hits,
			Provider: spec.ID,
			Cost:     estCost,
			Elapsed:  time.Since(started),
			Attempts: attempts,
		}, nil
	}

	err := classifyExhaustion(query.Text, attempts, c.budget.Remaining())
	c.metrics.RecordInvocation(gateway.CapabilitySearch, failureKind(err))
	logger.Warn("all search candidates exhausted",
		"candidates", len(candidates),
		"kind", failureKind(err),
	)
	return nil, err
}

// attempt issues the query to one candidate under the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, candidate gateway.Candidate, query *Query) (*providers.SearchResponse, time.Duration, error) {
	attemptCtx := ctx
	if query.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, query.Timeout)
		defer cancel()
	}

	sreq := &providers.SearchRequest{
		Query:      query.Text,
		MaxResults: query.MaxResults,
		Metadata:   map[string]string{"query_id": query.ID},
	}

	start := time.Now()
	resp, err := candidate.Search.SendSearch(attemptCtx, sreq)
	return resp, time.Since(start), err
}

// cacheGet reads through the collaborator, absorbing its errors into misses.
func (c *Client) cacheGet(ctx context.Context, key string, logger *slog.Logger) *cache.Entry {
	entry, found, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("search cache read failed, treating as miss", "error", err)
		c.metrics.RecordCacheLookup(false)
		return nil
	}
	c.metrics.RecordCacheLookup(found)
	if !found {
		return nil
	}
	return entry
}

// cachePut writes back through the collaborator, absorbing its errors.
func (c *Client) cachePut(ctx context.Context, key string, entry *cache.Entry, logger *slog.Logger) {
	if err := c.cache.Put(ctx, key, entry); err != nil {
		logger.Warn("search cache write failed", "error", err)
	}
}

// classifyExhaustion mirrors the engine's rule with the search-specific
// terminal error in the attempted-and-failed arm. Pure-skip trails reuse
// the shared budget and rate-limit taxonomy so callers pause or back off
// identically for either capability.
func classifyExhaustion(query string, attempts []gateway.Attempt, remaining float64) error {
	var (
		budgetSkips int
		rateSkips   int
		failures    int
		lastErr     error
		minWait     time.Duration
	)

	for _, a := range attempts {
		switch a.Status {
		case gateway.AttemptBudgetSkipped:
			budgetSkips++
		case gateway.AttemptRateLimited:
			rateSkips++
			if minWait == 0 || (a.RetryAfter > 0 && a.RetryAfter < minWait) {
				minWait = a.RetryAfter
			}
		case gateway.AttemptFailed:
			failures++
			if a.Err != nil {
				lastErr = a.Err
			}
		}
	}

	switch {
	case failures > 0:
		return &ExhaustedError{Query: query, Attempts: attempts, LastErr: lastErr}
	case budgetSkips == len(attempts) && budgetSkips > 0:
		return &gateway.BudgetExceededError{Capability: gateway.CapabilitySearch, Remaining: remaining, Attempts: attempts}
	case rateSkips == len(attempts) && rateSkips > 0:
		return &gateway.RateLimitedError{RetryAfter: minWait, Attempts: attempts}
	default:
		return &ExhaustedError{Query: query, Attempts: attempts}
	}
}

// failureKind extends the gateway taxonomy label with the search-specific
// terminal kind.
func failureKind(err error) string {
	if errors.Is(err, ErrSearchExhausted) {
		return "search_exhausted"
	}
	return gateway.FailureKind(err)
}

// searchCandidates filters to candidates that can serve queries.
func searchCandidates(candidates []gateway.Candidate) []gateway.Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.Search != nil {
			out = append(out, c)
		}
	}
	return out
}
