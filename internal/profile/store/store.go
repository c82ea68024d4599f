// Package store defines profile persistence.
package store

import (
	"context"

	"github.com/google/uuid"

	"soultribe/internal/profile/models"
)

// ProfileStore persists member profiles. Find returns storage.ErrNotFound for
// members who never saved one; the service materializes a default instead.
type ProfileStore interface {
	Find(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

// GeoStore caches geocoding results by place name.
type GeoStore interface {
	FindPlace(ctx context.Context, name string) (*models.Place, error)
	SavePlace(ctx context.Context, place *models.Place) error
}

// Store combines the profile stores a deployment provides.
type Store interface {
	ProfileStore
	GeoStore
}
