// Package activity records structured user-facing events (registrations,
// slot changes, meetup transitions) for audit and support. Emission is
// fire-and-forget: it must never fail or slow down a request.
package activity

import (
	"time"

	"github.com/google/uuid"
)

// Event is one activity record.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	ActorID   uuid.UUID      `json:"actor_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Actions emitted by the domain services.
const (
	ActionUserRegistered    = "user.registered"
	ActionUserLoggedIn      = "user.logged_in"
	ActionEmailVerified     = "user.email_verified"
	ActionPasswordReset     = "user.password_reset"
	ActionProfileUpdated    = "profile.updated"
	ActionSlotCreated       = "availability.slot_created"
	ActionSlotUpdated       = "availability.slot_updated"
	ActionSlotDeleted       = "availability.slot_deleted"
	ActionMatchCreated      = "match.created"
	ActionMatchStatusSet    = "match.status_set"
	ActionMeetupProposed    = "meetup.proposed"
	ActionMeetupConfirmed   = "meetup.confirmed"
	ActionMeetupUnconfirmed = "meetup.unconfirmed"
	ActionMeetupCanceled    = "meetup.canceled"
	ActionMeetupDeleted     = "meetup.deleted"
)
