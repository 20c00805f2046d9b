package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow implements a sliding window counter.
//
// The window tracks invocation counts over a rolling time period. Old
// entries outside the window are automatically pruned, so usage decays
// continuously instead of resetting on a fixed boundary.
//
// # Algorithm
//
//  1. Add value to the bucket for the current time
//  2. Prune buckets older than the window duration
//  3. Sum the remaining buckets to get current usage
//
// # Memory Efficiency
//
// Uses a circular buffer with fixed granularity to bound memory. A 1-minute
// window with 1-second buckets uses 60 buckets regardless of traffic.
//
// # Thread Safety
//
// SlidingWindow is thread-safe using sync.RWMutex.
type SlidingWindow struct {
	window     time.Duration
	bucketSize time.Duration
	buckets    []bucket
	head       int
	mu         sync.RWMutex
}

// bucket represents a single time-stamped counter bucket.
type bucket struct {
	timestamp time.Time
	value     int64
}

// NewSlidingWindow creates a sliding window counter.
//
// The number of buckets is window/bucketSize. Smaller bucket sizes provide
// more accuracy but use more memory.
//
// Example:
//
//	// 1-minute window with 1-second buckets (60 buckets)
//	sw := NewSlidingWindow(time.Minute, time.Second)
func NewSlidingWindow(window, bucketSize time.Duration) *SlidingWindow {
	// A bucket wider than the window would stamp entries before the prune
	// cutoff, expiring counts as soon as they are added.
	if bucketSize > window {
		bucketSize = window
	}

	numBuckets := int(window / bucketSize)
	if numBuckets == 0 {
		numBuckets = 1
	}

	return &SlidingWindow{
		window:     window,
		bucketSize: bucketSize,
		buckets:    make([]bucket, numBuckets),
		head:       0,
	}
}

// Add increments the counter by the given value in the current time bucket.
func (sw *SlidingWindow) Add(value int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.pruneLocked(now)

	currentBucket := sw.findOrCreateBucketLocked(now)
	currentBucket.value += value
}

// Sum returns the total count across all buckets in the window, pruning
// expired buckets first.
func (sw *SlidingWindow) Sum() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.pruneLocked(now)

	var sum int64
	for i := 0; i < len(sw.buckets); i++ {
		if !sw.buckets[i].timestamp.IsZero() {
			sum += sw.buckets[i].value
		}
	}

	return sum
}

// OldestTimestamp returns the timestamp of the oldest live bucket, or the
// zero time when the window is empty. This marks when usage next decreases.
func (sw *SlidingWindow) OldestTimestamp() time.Time {
	sw.mu.RLock()
	defer sw.mu.RUnlock()

	var oldest time.Time
	for i := 0; i < len(sw.buckets); i++ {
		if !sw.buckets[i].timestamp.IsZero() {
			if oldest.IsZero() || sw.buckets[i].timestamp.Before(oldest) {
				oldest = sw.buckets[i].timestamp
			}
		}
	}

	return oldest
}

// Window returns the window duration.
func (sw *SlidingWindow) Window() time.Duration {
	return sw.window
}

// Granularity returns the bucket size.
func (sw *SlidingWindow) Granularity() time.Duration {
	return sw.bucketSize
}

// Reset clears all buckets.
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	for i := 0; i < len(sw.buckets); i++ {
		sw.buckets[i] = bucket{}
	}
	sw.head = 0
}

// pruneLocked removes buckets older than the window.
// Caller must hold write lock.
func (sw *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-sw.window)

	for i := 0; i < len(sw.buckets); i++ {
		if !sw.buckets[i].timestamp.IsZero() && sw.buckets[i].timestamp.Before(cutoff) {
			sw.buckets[i] = bucket{}
		}
	}
}

// findOrCreateBucketLocked finds the bucket for the current time or creates
// a new one. Caller must hold write lock.
func (sw *SlidingWindow) findOrCreateBucketLocked(now time.Time) *bucket {
	bucketTime := now.Truncate(sw.bucketSize)

	if sw.buckets[sw.head].timestamp.Equal(bucketTime) {
		return &sw.buckets[sw.head]
	}

	for i := 0; i < len(sw.buckets); i++ {
		if sw.buckets[i].timestamp.Equal(bucketTime) {
			return &sw.buckets[i]
		}
	}

	// No bucket for this time yet. Prefer an empty slot, otherwise evict
	// the oldest.
	targetIdx := -1
	for i := 0; i < len(sw.buckets); i++ {
		if sw.buckets[i].timestamp.IsZero() {
			targetIdx = i
			break
		}
	}

	if targetIdx == -1 {
		oldestIdx := 0
		oldestTime := sw.buckets[0].timestamp

		for i := 1; i < len(sw.buckets); i++ {
			if sw.buckets[i].timestamp.Before(oldestTime) {
				oldestIdx = i
				oldestTime = sw.buckets[i].timestamp
			}
		}

		targetIdx = oldestIdx
	}

	sw.buckets[targetIdx] = bucket{
		timestamp: bucketTime,
		value:     0,
	}
	sw.head = targetIdx

	return &sw.buckets[targetIdx]
}
