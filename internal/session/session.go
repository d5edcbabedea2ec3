package session

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// Session is the persisted result of a successful login.
type Session struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Email        string    `json:"email"`
	UserID       string    `json:"user_id,omitempty"`
	Name         string    `json:"name,omitempty"`
	Role         string    `json:"role,omitempty"`
	BaseURL      string    `json:"base_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// IsExpired reports whether the session has a known expiry before now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Validate checks the fields every stored session must have.
func (s *Session) Validate() error {
	if s == nil {
		return errors.New(errors.ErrCodeSessionCorrupt, "session cannot be nil")
	}
	if strings.TrimSpace(s.Token) == "" {
		return errors.New(errors.ErrCodeSessionCorrupt, "session token cannot be empty")
	}
	return nil
}

// Store persists the current session.
//
// Implementations must be safe for concurrent use. Load returns a
// SESSION-001 error when no session exists.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// tokenOf implements the token lookup shared by all stores: a missing or
// expired session yields an empty token.
func tokenOf(ctx context.Context, store Store, now func() time.Time) (string, error) {
	s, err := store.Load(ctx)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeSessionNotFound {
			return "", nil
		}
		return "", err
	}
	if s.IsExpired(now()) {
		return "", nil
	}
	return s.Token, nil
}
