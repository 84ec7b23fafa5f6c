package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-length-0123456789"

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestStores(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Create(ctx, "s1", "u1", time.Hour))
			require.NoError(t, store.Create(ctx, "s2", "u1", time.Hour))
			require.NoError(t, store.Create(ctx, "s3", "u2", time.Hour))

			uid, err := store.Lookup(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "u1", uid)

			_, err = store.Lookup(ctx, "missing")
			assert.ErrorIs(t, err, ErrNoSession)

			require.NoError(t, store.Revoke(ctx, "s1"))
			_, err = store.Lookup(ctx, "s1")
			assert.ErrorIs(t, err, ErrNoSession)
			assert.ErrorIs(t, store.Revoke(ctx, "s1"), ErrNoSession)

			require.NoError(t, store.RevokeUser(ctx, "u1"))
			_, err = store.Lookup(ctx, "s2")
			assert.ErrorIs(t, err, ErrNoSession)

			uid, err = store.Lookup(ctx, "s3")
			require.NoError(t, err)
			assert.Equal(t, "u2", uid)
		})
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "s1", "u1", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "s1", "u1", time.Minute))
	now = now.Add(time.Minute)

	_, err := store.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_IssueAndAuthenticate(t *testing.T) {
	m := NewManager(testSecret, time.Hour, NewMemoryStore())
	ctx := context.Background()

	issued, err := m.Issue(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)

	p, err := m.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "user-1", SessionID: issued.SessionID}, p)

	require.NoError(t, m.Revoke(ctx, issued.SessionID))
	_, err = m.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_RevokeUser(t *testing.T) {
	m := NewManager(testSecret, time.Hour, NewMemoryStore())
	ctx := context.Background()

	a, err := m.Issue(ctx, "user-1")
	require.NoError(t, err)
	b, err := m.Issue(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, m.RevokeUser(ctx, "user-1"))
	for _, tok := range []string{a.Token, b.Token} {
		_, err := m.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, ErrNoSession)
	}
}

func TestManager_RejectsBadTokens(t *testing.T) {
	m := NewManager(testSecret, time.Hour, NewMemoryStore())
	ctx := context.Background()

	sign := func(claims jwt.MapClaims, secret string) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return tok
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "u1", "jti": "s1",
			"iss": tokenIssuer, "aud": tokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(valid(), "another-secret-another-secret-1234")},
		{"wrong issuer", sign(func() jwt.MapClaims { c := valid(); c["iss"] = "other"; return c }(), testSecret)},
		{"wrong audience", sign(func() jwt.MapClaims { c := valid(); c["aud"] = "other"; return c }(), testSecret)},
		{"expired", sign(func() jwt.MapClaims { c := valid(); c["exp"] = time.Now().Add(-time.Minute).Unix(); return c }(), testSecret)},
		{"no expiry", sign(func() jwt.MapClaims { c := valid(); delete(c, "exp"); return c }(), testSecret)},
		{"no session id", sign(func() jwt.MapClaims { c := valid(); delete(c, "jti"); return c }(), testSecret)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("valid signature but unknown session", func(t *testing.T) {
		_, err := m.Authenticate(ctx, sign(valid(), testSecret))
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestManager_IssueRequiresSecret(t *testing.T) {
	m := NewManager("", time.Hour, NewMemoryStore())
	_, err := m.Issue(context.Background(), "u1")
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractToken("Bearer abc", "cookie"))
	assert.Equal(t, "abc", ExtractToken("bearer abc", ""))
	assert.Equal(t, "cookie", ExtractToken("", "cookie"))
	assert.Equal(t, "cookie", ExtractToken("Basic xyz", " cookie "))
	assert.Empty(t, ExtractToken("", ""))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UserID: "u1", SessionID: "s1"})
	p, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", p.UserID)
}
