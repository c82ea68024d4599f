package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"soultribe/internal/profile/models"
	"soultribe/internal/storage"
)

// InMemoryStore keeps profiles and the geo cache in maps. Used in tests and
// single-node development runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*models.Profile
	places   map[string]*models.Place
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[uuid.UUID]*models.Profile),
		places:   make(map[string]*models.Place),
	}
}

func (s *InMemoryStore) Find(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyProfile(profile), nil
}

func (s *InMemoryStore) Upsert(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = copyProfile(profile)
	return nil
}

func (s *InMemoryStore) FindPlace(_ context.Context, name string) (*models.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	place, ok := s.places[placeKey(name)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *place
	return &copied, nil
}

func (s *InMemoryStore) SavePlace(_ context.Context, place *models.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *place
	s.places[placeKey(place.Name)] = &copied
	return nil
}

func placeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func copyProfile(p *models.Profile) *models.Profile {
	copied := *p
	if p.BirthUTC != nil {
		t := *p.BirthUTC
		copied.BirthUTC = &t
	}
	copied.BirthLat = copyFloat(p.BirthLat)
	copied.BirthLon = copyFloat(p.BirthLon)
	copied.LiveLat = copyFloat(p.LiveLat)
	copied.LiveLon = copyFloat(p.LiveLon)
	if p.Languages != nil {
		copied.Languages = append([]string(nil), p.Languages...)
	}
	return &copied
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
