// Package models defines stored matches.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of a match record.
type Status string

const (
	StatusSuggested Status = "suggested"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
)

// ValidStatus reports whether s is a status a client may set.
func ValidStatus(s Status) bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Match links two members. The pair is unordered: (A,B) and (B,A) refer to
// the same record. Score is an opaque compatibility number supplied when the
// match is created.
type Match struct {
	ID        uuid.UUID
	AUserID   uuid.UUID
	BUserID   uuid.UUID
	Score     int
	Status    Status
	CreatedAt time.Time
}

// Involves reports whether userID is one of the two participants.
func (m *Match) Involves(userID uuid.UUID) bool {
	return m.AUserID == userID || m.BUserID == userID
}

// Other returns the participant that is not userID.
func (m *Match) Other(userID uuid.UUID) uuid.UUID {
	if m.AUserID == userID {
		return m.BUserID
	}
	return m.AUserID
}
