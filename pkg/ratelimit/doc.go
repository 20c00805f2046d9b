// Package ratelimit provides per-provider sliding window rate limiting.
//
// # Overview
//
// Each provider is limited independently: a provider's limit is expressed as
// a maximum number of invocations per rolling time window (for example 60
// per minute). The limiter answers a single question, "may this provider be
// invoked right now", atomically recording the invocation when the answer is
// yes. Denials carry a retry-after hint derived from when the oldest counted
// invocation leaves the window.
//
// Sliding windows avoid the reset spike of fixed windows: usage decays
// continuously as old invocations age out rather than all at once on a
// boundary.
//
// # Usage
//
//	limiter := ratelimit.NewLimiter()
//	limiter.Set("anthropic", ratelimit.Limit{Requests: 60, Window: time.Minute})
//
//	decision := limiter.TryAcquire("anthropic")
//	if !decision.Allowed {
//	    // Provider is saturated; try again after decision.RetryAfter.
//	    return
//	}
//	// Proceed with the invocation. The attempt is already counted.
//
// Providers with no configured limit are always allowed.
package ratelimit
