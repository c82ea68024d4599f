package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a sliding-window hit counter suitable for a single
// instance. Multi-instance deployments use the Redis store.
type InMemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

func (s *InMemoryStore) Hit(_ context.Context, scope, identifier string, limit int, window time.Duration) (Decision, error) {
	key := scope + "|" + identifier
	now := s.now()
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.hits[key]
	trimmed := bucket[:0]
	for _, t := range bucket {
		if t.After(cutoff) {
			trimmed = append(trimmed, t)
		}
	}

	if len(trimmed) >= limit {
		retry := trimmed[0].Add(window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		s.hits[key] = trimmed
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	s.hits[key] = append(trimmed, now)
	return Decision{Allowed: true}, nil
}
