package session

import (
	"context"
	"sync"
	"time"

	"github.com/bagooon/chatease-intake/internal/domain"
)

// entry holds one session's values and its expiry deadline.
type entry struct {
	values    domain.SubmissionValues
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Entries expire after a TTL and are
// evicted opportunistically during lookups, so memory stays bounded without
// a background goroutine. Safe for concurrent use.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	entries  map[string]entry
	cleanupN uint64
}

// NewMemoryStore builds a MemoryStore with the given TTL. A ttl <= 0 falls
// back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the stored values for key, or (nil, nil) when absent or expired.
func (s *MemoryStore) Get(ctx context.Context, key string) (*domain.SubmissionValues, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeCleanup()

	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	v := e.values
	return &v, nil
}

// Set stores values under key, resetting the TTL.
func (s *MemoryStore) Set(ctx context.Context, key string, values domain.SubmissionValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeCleanup()

	s.entries[key] = entry{values: values, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Delete removes the state for key. Deleting an absent key is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Claim returns and removes the state for key in one critical section, so a
// concurrent Claim for the same key observes nothing.
func (s *MemoryStore) Claim(ctx context.Context, key string) (*domain.SubmissionValues, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	delete(s.entries, key)
	if !ok || s.now().After(e.expiresAt) {
		return nil, nil
	}
	v := e.values
	return &v, nil
}

// maybeCleanup evicts expired entries after a threshold of mutations.
// Caller must hold s.mu.
func (s *MemoryStore) maybeCleanup() {
	s.cleanupN++
	if s.cleanupN < 1000 {
		return
	}
	s.cleanupN = 0
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
