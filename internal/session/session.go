// Package session implements the session gate: signed bearer tokens whose
// identifier must still be present in a server-side session store.
package session

import (
	"context"
	"errors"
	"time"
)

// CookieName is the cookie that carries the session token for browser clients.
const CookieName = "photoshare_session"

// ErrNoSession reports a token that does not map to a live session.
var ErrNoSession = errors.New("session not found")

// Principal identifies the caller of an authenticated request.
type Principal struct {
	UserID    string
	SessionID string
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}

// Store keeps the server-side half of each session.
type Store interface {
	Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	// Lookup returns the owning user id or ErrNoSession.
	Lookup(ctx context.Context, sessionID string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeUser(ctx context.Context, userID string) error
}
