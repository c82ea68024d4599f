// Package store defines meetup persistence.
package store

import (
	"context"

	"github.com/google/uuid"

	"soultribe/internal/meetup/models"
)

// Store persists meetups. ListByMatches returns meetups on the given
// matches, newest first.
type Store interface {
	Create(ctx context.Context, meetup *models.Meetup) error
	Find(ctx context.Context, id uuid.UUID) (*models.Meetup, error)
	ListByMatches(ctx context.Context, matchIDs []uuid.UUID, limit, offset int) ([]*models.Meetup, error)
	Update(ctx context.Context, meetup *models.Meetup) error
	Delete(ctx context.Context, id uuid.UUID) error
}
