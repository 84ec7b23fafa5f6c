package redispkg

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		in       string
		wantAddr string
		wantPass string
		wantDB   int
		wantTLS  bool
	}{
		{"redis://:mypassword@redis:6379/1", "redis:6379", "mypassword", 1, false},
		{"rediss://:s3cret@redis.example.com:6380/2", "redis.example.com:6380", "s3cret", 2, true},
		{"redis:6379", "redis:6379", "", 0, false},
		{"", "redis:6379", "", 0, false},
	}

	for _, tc := range tests {
		addr, pass, db, tls := ParseRedisURL(tc.in)
		assert.Equal(t, tc.wantAddr, addr, tc.in)
		assert.Equal(t, tc.wantPass, pass, tc.in)
		assert.Equal(t, tc.wantDB, db, tc.in)
		assert.Equal(t, tc.wantTLS, tls, tc.in)
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	got, err := client.Get(context.Background(), "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	viaURL, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = viaURL.Close()
}

func TestConnectFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr)
	assert.Error(t, err)
}
