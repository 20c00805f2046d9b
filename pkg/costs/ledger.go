package costs

import (
	"sync"
	"time"
)

// Tracker is the cost ledger for a single budget period.
//
// The ceiling is fixed at construction. All mutation happens under one
// mutex; this is the only strict mutual-exclusion point in the gateway, and
// it is what keeps the running total exact across concurrent invocations.
type Tracker struct {
	ceiling float64

	mu      sync.RWMutex
	total   float64
	entries []LedgerEntry
}

// NewTracker creates a tracker with the given budget ceiling.
func NewTracker(ceiling float64) *Tracker {
	return &Tracker{ceiling: ceiling}
}

// Record appends a ledger entry and returns the new running total. Negative
// amounts are clamped to zero so the total is monotonically non-decreasing.
// Record never fails: affordability is the caller's pre-check via CanAfford.
func (t *Tracker) Record(providerID, requestID string, amount float64) float64 {
	if amount < 0 {
		amount = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total += amount
	t.entries = append(t.entries, LedgerEntry{
		Timestamp: time.Now(),
		Provider:  providerID,
		RequestID: requestID,
		Amount:    amount,
		Total:     t.total,
	})

	return t.total
}

// CanAfford reports whether recording amount would keep the running total at
// or under the ceiling. It does not mutate state.
func (t *Tracker) CanAfford(amount float64) bool {
	if amount < 0 {
		amount = 0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.total+amount <= t.ceiling
}

// Remaining returns the budget left before the ceiling, floored at zero.
func (t *Tracker) Remaining() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.remainingLocked()
}

// Total returns the exact running total recorded so far.
func (t *Tracker) Total() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.total
}

// Ceiling returns the configured ceiling.
func (t *Tracker) Ceiling() float64 {
	return t.ceiling
}

// Entries returns a copy of the ledger for callers that snapshot spend
// records themselves.
func (t *Tracker) Entries() []LedgerEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]LedgerEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Status returns a point-in-time snapshot.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Status{
		Ceiling:   t.ceiling,
		Spent:     t.total,
		Remaining: t.remainingLocked(),
		Entries:   len(t.entries),
	}
}

// remainingLocked computes remaining budget. Caller must hold at least a
// read lock.
func (t *Tracker) remainingLocked() float64 {
	remaining := t.ceiling - t.total
	if remaining < 0 {
		return 0
	}
	return remaining
}
