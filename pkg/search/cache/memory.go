package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry wraps a cached entry with its expiry deadline.
type memoryEntry struct {
	entry     *Entry
	expiresAt time.Time
}

// Memory is a thread-safe in-memory cache with TTL expiry and a max-entry
// cap. When the cache is full, the oldest entry is evicted. Expired entries
// are filtered on read and reaped by a background sweep goroutine.
type Memory struct {
	// entries maps normalized query keys to cached results
	entries map[string]*memoryEntry

	// ttl is the time-to-live for cache entries (0 = no expiry)
	ttl time.Duration

	// maxEntries is the maximum number of entries (0 = unlimited)
	maxEntries int

	// mu protects concurrent access to the cache
	mu sync.RWMutex

	// stopCh signals the sweep goroutine to stop
	stopCh chan struct{}

	closeOnce sync.Once
}

// NewMemory creates an in-memory cache.
// If ttl is 0, entries never expire and no sweep goroutine runs.
// If maxEntries is 0, the cache has unlimited size.
// The sweep interval defaults to ttl/2, floored at 10 seconds.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	m := &Memory{
		entries:    make(map[string]*memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}

	if ttl > 0 {
		interval := ttl / 2
		if interval < 10*time.Second {
			interval = 10 * time.Second
		}
		go m.sweep(interval)
	}

	return m
}

// Get retrieves the entry stored under key. Expired entries count as
// misses. Never returns an error.
func (m *Memory) Get(ctx context.Context, key string) (*Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	me, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.ttl > 0 && time.Now().After(me.expiresAt) {
		return nil, false, nil
	}
	return copyEntry(me.entry), true, nil
}

// Put stores an entry under key. When the cache is at capacity and the key
// is new, the oldest entry is evicted first. Never returns an error.
func (m *Memory) Put(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		if _, exists := m.entries[key]; !exists {
			m.evictOldest()
		}
	}

	expiresAt := time.Time{}
	if m.ttl > 0 {
		expiresAt = time.Now().Add(m.ttl)
	}
	m.entries[key] = &memoryEntry{entry: copyEntry(entry), expiresAt: expiresAt}
	return nil
}

// Len returns the number of stored entries, expired ones included until the
// next sweep.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the sweep goroutine. Idempotent.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopCh)
	})
	return nil
}

// evictOldest removes the entry with the earliest creation time. Caller
// holds the write lock.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldestAt time.Time

	for key, me := range m.entries {
		if oldestKey == "" || me.entry.CreatedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = me.entry.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// sweep periodically drops expired entries.
func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, me := range m.entries {
				if now.After(me.expiresAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
