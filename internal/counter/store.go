package counter

import (
	"context"
	"sync"
	"time"
)

// Store is a shared, atomically-incrementable counter keyed by (subject,
// window). Counts follow sliding-window semantics: only events strictly
// within now - window are reflected, never fixed buckets.
type Store interface {
	// Increment records one event for key and returns the count of events
	// inside the trailing window, including the one just recorded.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Count returns the number of events for key inside the trailing window.
	Count(ctx context.Context, key string, window time.Duration) (int64, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of Store.
// Event timestamps are trimmed on every access, so expired entries never
// contribute to a count.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string][]time.Time
	now    func() time.Time
}

// NewMemoryStore creates an in-memory counter store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an in-memory counter store with an
// injectable clock, used by tests to simulate window expiry.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]time.Time),
		now:    now,
	}
}

// Increment records an event for key and returns the in-window count.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.trimLocked(key, now, window)
	kept = append(kept, now)
	s.events[key] = kept
	return int64(len(kept)), nil
}

// Count returns the number of in-window events for key.
func (s *MemoryStore) Count(_ context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.trimLocked(key, now, window)
	if len(kept) == 0 {
		delete(s.events, key)
	} else {
		s.events[key] = kept
	}
	return int64(len(kept)), nil
}

// trimLocked drops timestamps at or before the window floor. Timestamps are
// appended in arrival order, so the slice stays sorted and a single scan from
// the front suffices.
func (s *MemoryStore) trimLocked(key string, now time.Time, window time.Duration) []time.Time {
	floor := now.Add(-window)
	events := s.events[key]
	i := 0
	for i < len(events) && !events[i].After(floor) {
		i++
	}
	return events[i:]
}
