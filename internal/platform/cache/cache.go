// Package cache provides a bounded in-memory key-value store for search
// results. Entries carry a creation timestamp; staleness and capacity are
// enforced inline on each insert, never by a background sweeper.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	createdAt time.Time
}

// Store is a thread-safe bounded map with oldest-first eviction on insert.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store holding at most maxEntries entries, discarding entries
// older than maxAge on the next insert.
func New(maxEntries int, maxAge time.Duration, opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Key builds the composite cache key for a search:
// {orderingKind}-{drugNameLower}-{zip}-{radius}.
func Key(kind, drugName, zipCode string, radiusMiles int) string {
	return fmt.Sprintf("%s-%s-%s-%d", kind, strings.ToLower(drugName), zipCode, radiusMiles)
}

// Get returns the value stored under key. Reads do not expire entries;
// staleness is only checked when writing.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. Before inserting it drops entries older than
// the max age, then evicts oldest-first until the store is under capacity.
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if s.maxAge > 0 {
		cutoff := now.Add(-s.maxAge)
		for k, e := range s.entries {
			if e.createdAt.Before(cutoff) {
				delete(s.entries, k)
			}
		}
	}

	if _, exists := s.entries[key]; !exists {
		for s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
			s.evictOldest()
		}
	}

	s.entries[key] = &entry{value: value, createdAt: now}
}

// evictOldest removes the entry with the earliest creation time. Caller holds
// the write lock.
func (s *Store) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range s.entries {
		if first || e.createdAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.createdAt
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
	}
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
