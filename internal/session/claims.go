package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what adminctl reads from a session token.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Inspect decodes a JWT session token without verifying its signature.
// The backend is the only party that can verify it; the CLI only needs the
// expiry to warn about stale sessions. Opaque tokens return an error.
func Inspect(token string) (*Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}

	out := &Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if out.Subject == "" {
		switch id := claims["id"].(type) {
		case string:
			out.Subject = id
		case float64:
			out.Subject = fmt.Sprintf("%.0f", id)
		}
	}
	return out, nil
}

// ExpiryOf returns the token's expiry, or the zero time when unknown.
func ExpiryOf(token string) time.Time {
	c, err := Inspect(token)
	if err != nil {
		return time.Time{}
	}
	return c.ExpiresAt
}
