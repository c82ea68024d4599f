// Package store defines availability persistence.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"soultribe/internal/availability/models"
)

// Store persists availability slots. ListByUser returns slots ordered by
// start time; Find/Update/Delete return storage.ErrNotFound when the slot
// does not exist or belongs to another member.
type Store interface {
	Create(ctx context.Context, slot *models.Slot) error
	Find(ctx context.Context, userID, slotID uuid.UUID) (*models.Slot, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Slot, error)
	Update(ctx context.Context, slot *models.Slot) error
	Delete(ctx context.Context, userID, slotID uuid.UUID) error
	DeleteExpired(ctx context.Context, userID uuid.UUID, before time.Time) (int64, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
