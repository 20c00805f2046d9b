package search

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"stars-end/tribune/pkg/gateway"
	"stars-end/tribune/pkg/providers"
)

// Query is one logical search request. The zero value of optional fields
// means "unset".
type Query struct {
	// ID correlates the query across logs, ledger entries, and metrics.
	// Generated when absent.
	ID string

	// Text is the query text.
	Text string

	// MaxResults caps the number of hits. Zero means the provider default.
	MaxResults int

	// Fresh bypasses the cache read. The result is still written back.
	Fresh bool

	// Timeout bounds each provider attempt. Zero means the context's
	// deadline alone applies.
	Timeout time.Duration
}

// normalize fills generated fields in place so the caller can observe the
// assigned query ID.
func (q *Query) normalize() {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
}

// Result is the outcome of a served search.
type Result struct {
	// QueryID echoes the query's correlation ID.
	QueryID string

	// Query is the original query text.
	Query string

	// Key is the normalized cache key the query resolved to.
	Key string

	// Hits are the normalized results in rank order.
	Hits []providers.SearchHit

	// Provider is the candidate that served the query, or the provider
	// recorded with the cached entry on a hit.
	Provider string

	// CacheHit reports whether the result came from the cache.
	CacheHit bool

	// Cost is the amount recorded in the ledger. Zero on cache hits.
	Cost float64

	// Elapsed is the total wall time of the search.
	Elapsed time.Duration

	// Attempts is the candidate trail. Empty on cache hits.
	Attempts []gateway.Attempt
}

// NormalizeQuery derives the cache key for a query: lowercased, trimmed,
// interior whitespace collapsed to single spaces. Queries differing only in
// case or spacing share one cache entry.
func NormalizeQuery(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
