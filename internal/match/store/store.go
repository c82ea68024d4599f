// Package store defines match persistence.
package store

import (
	"context"

	"github.com/google/uuid"

	"soultribe/internal/match/models"
)

// Store persists matches. FindByPair is order-insensitive.
type Store interface {
	Create(ctx context.Context, match *models.Match) error
	Find(ctx context.Context, id uuid.UUID) (*models.Match, error)
	FindByPair(ctx context.Context, a, b uuid.UUID) (*models.Match, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Match, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}
