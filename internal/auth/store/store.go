// Package store defines the auth persistence interfaces with in-memory and
// PostgreSQL implementations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/auth/models"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// RefreshTokenStore persists hashed refresh tokens.
type RefreshTokenStore interface {
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID, at time.Time) error
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// ActionTokenStore persists single-use mail link tokens.
type ActionTokenStore interface {
	SaveActionToken(ctx context.Context, token *models.ActionToken) error
	FindActionToken(ctx context.Context, kind models.ActionTokenKind, tokenHash string) (*models.ActionToken, error)
	MarkActionTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteExpiredActionTokens(ctx context.Context, before time.Time) (int64, error)
}

// Store bundles the three auth stores; both implementations satisfy it.
type Store interface {
	UserStore
	RefreshTokenStore
	ActionTokenStore
}
