// Package models holds the auth domain entities.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. Profile data lives in the profile domain; this carries
// only identity and login state.
type User struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string
	CreatedAt       time.Time
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
}

// Verified reports whether the account's email has been confirmed.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}

// RefreshToken is a long-lived credential, stored hashed. The raw token never
// touches the database.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	ClientIP  string
	UserAgent string
	// Device is a human-readable browser/OS summary parsed from UserAgent.
	Device string
}

// Usable reports whether the token is live at the given time.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// ActionTokenKind distinguishes single-use email link tokens.
type ActionTokenKind string

const (
	KindVerifyEmail   ActionTokenKind = "verify_email"
	KindPasswordReset ActionTokenKind = "password_reset"
)

// ActionToken is a single-use token delivered by mail (verification or
// password reset). Like refresh tokens, only the hash is stored; the raw
// value lives in the mailed link.
type ActionToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      ActionTokenKind
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// Usable reports whether the token can still be redeemed at the given time.
func (t *ActionToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
