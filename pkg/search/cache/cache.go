package cache

import (
	"context"
	"time"

	"stars-end/tribune/pkg/providers"
)

// Entry is one cached search result.
type Entry struct {
	// Query is the original (pre-normalization) query text.
	Query string `json:"query"`

	// Provider is the provider that served the original query.
	Provider string `json:"provider"`

	// Hits are the normalized results in rank order.
	Hits []providers.SearchHit `json:"hits"`

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time `json:"created_at"`
}

// Cache is the collaborator interface the search client consults. Get
// returns (entry, true, nil) on a live hit and (nil, false, nil) on a miss;
// errors are reported but the caller treats them as misses. Eviction policy
// belongs to the implementation.
type Cache interface {
	// Get retrieves the entry stored under key, if any.
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Put stores an entry under key, replacing any existing one.
	Put(ctx context.Context, key string, entry *Entry) error

	// Close releases backend resources. After Close the cache must not be
	// used.
	Close() error
}

// copyEntry clones an entry so cached state and caller state cannot alias.
func copyEntry(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	out := *e
	out.Hits = make([]providers.SearchHit, len(e.Hits))
	copy(out.Hits, e.Hits)
	return &out
}
