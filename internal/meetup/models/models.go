// Package models defines meetups.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the meetup lifecycle.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// Meetup is one concrete appointment attempt on a match. Proposing and
// confirming are asymmetric: the proposer picks a time, the other side
// confirms it, and only a confirmed meetup carries a room URL.
type Meetup struct {
	ID           uuid.UUID
	MatchID      uuid.UUID
	ProposedUTC  time.Time
	ConfirmedUTC *time.Time
	RoomURL      string
	Status       Status
	ProposerID   uuid.UUID
	ConfirmerID  *uuid.UUID
	CreatedAt    time.Time
}
