// Package models defines availability slots.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Slot is one window a member is free to meet. Start/End are the source of
// truth in UTC; the local fields and zone are redundant hints recorded at
// save time so the original wall-clock intent survives zone rule changes.
type Slot struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	StartUTC   time.Time
	EndUTC     time.Time
	StartLocal string
	EndLocal   string
	Zone       string
	CreatedAt  time.Time
}

// Expired reports whether the slot lies entirely in the past.
func (s *Slot) Expired(now time.Time) bool {
	return !s.EndUTC.After(now)
}
