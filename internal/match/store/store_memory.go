package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"soultribe/internal/match/models"
	"soultribe/internal/storage"
)

// InMemoryStore keeps matches in a map. Used in tests and development runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]*models.Match
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{matches: make(map[uuid.UUID]*models.Match)}
}

func (s *InMemoryStore) Create(_ context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *match
	s.matches[match.ID] = &copied
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id uuid.UUID) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *match
	return &copied, nil
}

func (s *InMemoryStore) FindByPair(_ context.Context, a, b uuid.UUID) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, match := range s.matches {
		if (match.AUserID == a && match.BUserID == b) || (match.AUserID == b && match.BUserID == a) {
			copied := *match
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Match
	for _, match := range s.matches {
		if match.Involves(userID) {
			copied := *match
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, id uuid.UUID, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	if !ok {
		return storage.ErrNotFound
	}
	match.Status = status
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.matches, id)
	return nil
}
