package session

import (
	"context"
	"errors"
	"time"

	"github.com/congo-pay/datatopup/internal/identity"
)

var (
	// ErrNotFound is returned when no live session matches the request.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidToken is returned for cookies that fail signature or expiry checks.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is the server-side record behind a session cookie.
type Session struct {
	ID        string        `json:"id"`
	User      identity.User `json:"user"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions by id.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
