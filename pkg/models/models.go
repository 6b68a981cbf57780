package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoSession     = errors.New("no active session")
	ErrEmptyContent  = errors.New("idea content is empty")
	ErrNoRowReturned = errors.New("insert returned no rows")
)

// Idea is one user-authored note stored in the ideas table
type Idea struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `json:"user_id"`
}

// NewIdea is the insert payload; the store fills id and created_at
type NewIdea struct {
	Content string    `json:"content"`
	UserID  uuid.UUID `json:"user_id"`
}

// Session is the authenticated account plus the tokens needed to act as it
type Session struct {
	UserID       uuid.UUID
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// AuthEventKind names a session transition
type AuthEventKind string

const (
	AuthSignedIn       AuthEventKind = "SIGNED_IN"
	AuthSignedOut      AuthEventKind = "SIGNED_OUT"
	AuthTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
)

// AuthEvent is delivered to session-change subscribers. Session is nil
// after a sign-out.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *Session
}
