package costs

import "time"

// LedgerEntry records one priced call.
type LedgerEntry struct {
	// Timestamp is when the entry was appended.
	Timestamp time.Time

	// Provider identifies which provider served the call.
	Provider string

	// RequestID ties the entry back to the invocation that incurred it.
	RequestID string

	// Amount is the cost of this call in the configured currency.
	Amount float64

	// Total is the running total immediately after this entry.
	Total float64
}

// Status is a point-in-time snapshot of a tracker, suitable for callers that
// want to log or persist budget state themselves.
type Status struct {
	// Ceiling is the configured budget ceiling.
	Ceiling float64

	// Spent is the running total recorded so far.
	Spent float64

	// Remaining is max(0, Ceiling-Spent).
	Remaining float64

	// Entries is the ledger length.
	Entries int
}

// Budget is the accounting surface the invocation paths consume. Tracker and
// PeriodicTracker both satisfy it; injecting the interface keeps budget
// periods and test isolation clean.
type Budget interface {
	// Record appends a ledger entry and returns the new running total.
	// It never fails; callers check CanAfford before issuing a paid call.
	Record(providerID, requestID string, amount float64) float64

	// CanAfford reports whether total+amount stays at or under the ceiling.
	CanAfford(amount float64) bool

	// Remaining reports the budget left before the ceiling.
	Remaining() float64
}
