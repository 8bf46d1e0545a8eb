package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the subset of access token claims the client reads for display
// and logging. They are never used for authorization decisions.
type Claims struct {
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that has passed.
func (c Claims) Expired() bool {
	return !c.ExpiresAt.IsZero() && NowTimeFunc().After(c.ExpiresAt)
}

// Claims decodes the access token without verifying its signature. The
// server remains the only authority on validity; an opaque (non-JWT) access
// value returns an error.
func (p Pair) Claims() (Claims, error) {
	if !p.HasAccess() {
		return Claims{}, fmt.Errorf("[Pair Claims] no access token")
	}

	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(p.Access, &registered); err != nil {
		return Claims{}, fmt.Errorf("[Pair Claims] failed to decode access token: %w", err)
	}

	c := Claims{
		Subject: registered.Subject,
		TokenID: registered.ID,
	}
	if registered.IssuedAt != nil {
		c.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		c.ExpiresAt = registered.ExpiresAt.Time
	}
	return c, nil
}
