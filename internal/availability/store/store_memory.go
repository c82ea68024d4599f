package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/availability/models"
	"soultribe/internal/storage"
)

// InMemoryStore keeps slots in a map. Used in tests and development runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*models.Slot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{slots: make(map[uuid.UUID]*models.Slot)}
}

func (s *InMemoryStore) Create(_ context.Context, slot *models.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *slot
	s.slots[slot.ID] = &copied
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, userID, slotID uuid.UUID) (*models.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[slotID]
	if !ok || slot.UserID != userID {
		return nil, storage.ErrNotFound
	}
	copied := *slot
	return &copied, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Slot
	for _, slot := range s.slots {
		if slot.UserID == userID {
			copied := *slot
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartUTC.Before(out[j].StartUTC) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, slot *models.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.slots[slot.ID]
	if !ok || existing.UserID != slot.UserID {
		return storage.ErrNotFound
	}
	copied := *slot
	s.slots[slot.ID] = &copied
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID, slotID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[slotID]
	if !ok || slot.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.slots, slotID)
	return nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, userID uuid.UUID, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, slot := range s.slots {
		if slot.UserID == userID && !slot.EndUTC.After(before) {
			delete(s.slots, id)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, slot := range s.slots {
		if !slot.EndUTC.After(before) {
			delete(s.slots, id)
			n++
		}
	}
	return n, nil
}
