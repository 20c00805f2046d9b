package ratelimit

import "time"

// Limit configures the rate limit for a single provider.
type Limit struct {
	// Requests is the maximum number of invocations per window.
	// Zero or negative means unlimited.
	Requests int

	// Window is the rolling window duration. Defaults to one minute
	// when zero.
	Window time.Duration
}

// Unlimited reports whether the limit permits any rate.
func (l Limit) Unlimited() bool {
	return l.Requests <= 0
}

// Decision is the outcome of a TryAcquire call.
type Decision struct {
	// Allowed indicates the invocation may proceed. When true, the
	// invocation has already been counted against the window.
	Allowed bool

	// Remaining is how many invocations remain in the window after this
	// decision. It is -1 when the provider has no configured limit.
	Remaining int

	// RetryAfter suggests how long to wait before retrying. Only set on
	// denials: it is the time until the oldest counted invocation ages
	// out of the window.
	RetryAfter time.Duration
}
