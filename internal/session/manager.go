package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "photoshare-api"
	tokenAudience = "photoshare-client"
)

// ErrInvalidToken reports a token that fails signature or claim validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// Issued is a freshly created session.
type Issued struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// Manager signs session tokens and checks them against the session store.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

// NewManager returns a Manager signing with secret. Sessions live for ttl.
func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, store: store, now: time.Now}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session for userID and returns its signed token.
func (m *Manager) Issue(ctx context.Context, userID string) (*Issued, error) {
	if len(m.secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	now := m.now()
	sessionID := uuid.NewString()
	expiresAt := now.Add(m.ttl)
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": sessionID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := m.store.Create(ctx, sessionID, userID, m.ttl); err != nil {
		return nil, err
	}
	return &Issued{Token: signed, SessionID: sessionID, ExpiresAt: expiresAt}, nil
}

// Parse validates the token's signature and claims without consulting the store.
func (m *Manager) Parse(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: sub, SessionID: jti}, nil
}

// Authenticate validates the token and requires its session to still exist for the same user.
func (m *Manager) Authenticate(ctx context.Context, tokenString string) (Principal, error) {
	p, err := m.Parse(tokenString)
	if err != nil {
		return Principal{}, err
	}
	owner, err := m.store.Lookup(ctx, p.SessionID)
	if err != nil {
		return Principal{}, err
	}
	if owner != p.UserID {
		return Principal{}, ErrNoSession
	}
	return p, nil
}

// Revoke ends one session.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.Revoke(ctx, sessionID)
}

// RevokeUser ends every session of userID.
func (m *Manager) RevokeUser(ctx context.Context, userID string) error {
	return m.store.RevokeUser(ctx, userID)
}

// ExtractToken picks the bearer token from an Authorization header, falling back to the cookie value.
func ExtractToken(authHeader, cookie string) string {
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return strings.TrimSpace(cookie)
}
