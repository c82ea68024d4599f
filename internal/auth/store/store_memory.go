package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/auth/models"
	"soultribe/internal/storage"
	dErrors "soultribe/pkg/domainerrors"
)

// InMemoryStore implements Store with mutex-guarded maps.
type InMemoryStore struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*models.User
	usersByEmail map[string]uuid.UUID
	refresh      map[uuid.UUID]*models.RefreshToken
	action       map[uuid.UUID]*models.ActionToken
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:        make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]uuid.UUID),
		refresh:      make(map[uuid.UUID]*models.RefreshToken),
		action:       make(map[uuid.UUID]*models.ActionToken),
	}
}

func (s *InMemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	}
	copied := *user
	s.users[user.ID] = &copied
	s.usersByEmail[key] = user.ID
	return nil
}

func (s *InMemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *InMemoryStore) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *InMemoryStore) ListUsers(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		copied := *user
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) MarkEmailVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.EmailVerifiedAt = &at
	return nil
}

func (s *InMemoryStore) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.LastLoginAt = &at
	return nil
}

func (s *InMemoryStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (s *InMemoryStore) SaveRefreshToken(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.refresh[token.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindRefreshTokenByHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, token := range s.refresh {
		if token.TokenHash == tokenHash {
			copied := *token
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *InMemoryStore) RevokeRefreshToken(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.refresh[id]
	if !ok {
		return storage.ErrNotFound
	}
	token.RevokedAt = &at
	return nil
}

func (s *InMemoryStore) RevokeUserRefreshTokens(_ context.Context, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range s.refresh {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &at
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteExpiredRefreshTokens(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, token := range s.refresh {
		if token.ExpiresAt.Before(before) {
			delete(s.refresh, id)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryStore) SaveActionToken(_ context.Context, token *models.ActionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.action[token.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindActionToken(_ context.Context, kind models.ActionTokenKind, tokenHash string) (*models.ActionToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, token := range s.action {
		if token.Kind == kind && token.TokenHash == tokenHash {
			copied := *token
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *InMemoryStore) MarkActionTokenUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.action[id]
	if !ok {
		return storage.ErrNotFound
	}
	token.UsedAt = &at
	return nil
}

func (s *InMemoryStore) DeleteExpiredActionTokens(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, token := range s.action {
		if token.ExpiresAt.Before(before) || token.UsedAt != nil {
			delete(s.action, id)
			removed++
		}
	}
	return removed, nil
}
