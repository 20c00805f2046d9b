// Package search implements the web-search side of the gateway: the same
// ordered-candidate, budget- and rate-checked walk as the invocation
// engine, with a cache consultation in front of it. A cache hit
// short-circuits the walk and consumes no budget or rate-limit slot.
//
// Exhausted walks surface as ErrSearchExhausted, kept distinct from the
// LLM terminal error so callers can branch on which capability failed;
// all-budget-skipped and all-rate-limited walks reuse the shared gateway
// taxonomy so back-off policy is identical for either capability.
package search
