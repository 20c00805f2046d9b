// Package costs provides per-invocation cost accounting against an enforced
// budget ceiling, plus the pricing models and token estimation the gateway
// uses to decide whether a call is affordable before issuing it.
//
// # Ledger
//
// A Tracker owns an append-only ledger for one budget period. Every priced
// call appends an entry; the running total is the single source of truth for
// budget checks and is updated under strict mutual exclusion so concurrent
// invocations can never lose an update or silently exceed the ceiling.
//
//	tracker := costs.NewTracker(25.00)
//	if tracker.CanAfford(0.04) {
//	    total := tracker.Record("claude-sonnet", requestID, 0.04)
//	    _ = total
//	}
//
// A fresh tracker per budget period is the expected usage pattern; the
// ceiling is immutable for the tracker's lifetime. PeriodicTracker automates
// the pattern by swapping in a fresh ledger on a cron schedule.
//
// # Pricing and estimation
//
// Pricing expresses a provider's cost model: per-1K-token rates for chat
// completions, a flat per-query rate for search. Table maps model
// identifiers to default pricing with longest-prefix fallback for versioned
// model names and supports atomic replacement for hot-reload. Estimator
// produces cheap character-ratio token estimates for pre-call checks.
//
// The tracker never persists anything. Callers snapshot Entries or Status
// if they want durable records; persistence lives outside the gateway.
package costs
