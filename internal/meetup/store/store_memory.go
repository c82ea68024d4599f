package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"soultribe/internal/meetup/models"
	"soultribe/internal/storage"
)

// InMemoryStore keeps meetups in a map. Used in tests and development runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	meetups map[uuid.UUID]*models.Meetup
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{meetups: make(map[uuid.UUID]*models.Meetup)}
}

func (s *InMemoryStore) Create(_ context.Context, meetup *models.Meetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetups[meetup.ID] = copyMeetup(meetup)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id uuid.UUID) (*models.Meetup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meetup, ok := s.meetups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyMeetup(meetup), nil
}

func (s *InMemoryStore) ListByMatches(_ context.Context, matchIDs []uuid.UUID, limit, offset int) ([]*models.Meetup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[uuid.UUID]struct{}, len(matchIDs))
	for _, id := range matchIDs {
		wanted[id] = struct{}{}
	}
	var out []*models.Meetup
	for _, meetup := range s.meetups {
		if _, ok := wanted[meetup.MatchID]; ok {
			out = append(out, copyMeetup(meetup))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, meetup *models.Meetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetups[meetup.ID]; !ok {
		return storage.ErrNotFound
	}
	s.meetups[meetup.ID] = copyMeetup(meetup)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetups[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.meetups, id)
	return nil
}

func copyMeetup(m *models.Meetup) *models.Meetup {
	copied := *m
	if m.ConfirmedUTC != nil {
		at := *m.ConfirmedUTC
		copied.ConfirmedUTC = &at
	}
	if m.ConfirmerID != nil {
		id := *m.ConfirmerID
		copied.ConfirmerID = &id
	}
	return &copied
}
