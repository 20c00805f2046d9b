package ratelimit

import (
	"sync"
	"time"
)

const defaultWindow = time.Minute

// Limiter tracks sliding window rate limits for a set of providers.
//
// Each provider gets its own window guarded by its own lock, so a saturated
// provider never blocks decisions about the others. TryAcquire is the single
// entry point: it checks and records atomically, which means a burst of
// concurrent calls can never over-admit past the configured limit.
type Limiter struct {
	mu        sync.RWMutex
	providers map[string]*providerLimiter
}

type providerLimiter struct {
	mu     sync.Mutex
	limit  Limit
	window *SlidingWindow
}

// NewLimiter creates an empty limiter. Providers are registered with Set.
func NewLimiter() *Limiter {
	return &Limiter{
		providers: make(map[string]*providerLimiter),
	}
}

// Set registers or replaces the limit for a provider. Replacing a limit
// starts a fresh window.
func (l *Limiter) Set(providerID string, limit Limit) {
	if limit.Window <= 0 {
		limit.Window = defaultWindow
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.providers[providerID] = &providerLimiter{
		limit:  limit,
		window: NewSlidingWindow(limit.Window, granularityFor(limit.Window)),
	}
}

// TryAcquire checks whether the provider may be invoked right now. When
// allowed, the invocation is counted against the window in the same step.
// Denials carry a retry-after hint and consume nothing.
//
// Providers never registered with Set are always allowed.
func (l *Limiter) TryAcquire(providerID string) Decision {
	pl := l.lookup(providerID)
	if pl == nil {
		return Decision{Allowed: true, Remaining: -1}
	}
	return pl.tryAcquire()
}

// Usage returns the number of invocations currently counted in the
// provider's window.
func (l *Limiter) Usage(providerID string) int {
	pl := l.lookup(providerID)
	if pl == nil {
		return 0
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()
	return int(pl.window.Sum())
}

// Limit returns the configured limit for a provider.
func (l *Limiter) Limit(providerID string) (Limit, bool) {
	pl := l.lookup(providerID)
	if pl == nil {
		return Limit{}, false
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.limit, true
}

// Reset clears the provider's window. The configured limit is kept.
func (l *Limiter) Reset(providerID string) {
	pl := l.lookup(providerID)
	if pl == nil {
		return
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.window.Reset()
}

// ResetAll clears every provider's window.
func (l *Limiter) ResetAll() {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, pl := range l.providers {
		pl.mu.Lock()
		pl.window.Reset()
		pl.mu.Unlock()
	}
}

func (l *Limiter) lookup(providerID string) *providerLimiter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.providers[providerID]
}

func (p *providerLimiter) tryAcquire() Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.limit.Unlimited() {
		return Decision{Allowed: true, Remaining: -1}
	}

	count := p.window.Sum()
	if count >= int64(p.limit.Requests) {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: p.retryAfterLocked(),
		}
	}

	p.window.Add(1)
	return Decision{
		Allowed:   true,
		Remaining: p.limit.Requests - int(count) - 1,
	}
}

// retryAfterLocked computes how long until the oldest counted invocation
// ages out. The hint is padded by one bucket so a caller retrying after
// exactly this duration lands past the prune boundary.
func (p *providerLimiter) retryAfterLocked() time.Duration {
	oldest := p.window.OldestTimestamp()
	if oldest.IsZero() {
		return p.window.Granularity()
	}

	wait := time.Until(oldest.Add(p.limit.Window)) + p.window.Granularity()
	if wait < p.window.Granularity() {
		wait = p.window.Granularity()
	}
	return wait
}

// granularityFor picks a bucket size for a window. Sixty buckets per window
// mirrors seconds-per-minute granularity while keeping memory bounded for
// long windows and accuracy reasonable for short ones.
func granularityFor(window time.Duration) time.Duration {
	g := window / 60
	if g < time.Millisecond {
		g = time.Millisecond
	}
	if g > time.Minute {
		g = time.Minute
	}
	return g
}
