package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"photoshare/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("no message delivered")
		return ""
	}
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:abc", UserChannel("abc"))

	id, ok := userFromChannel("notifications:user:abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = userFromChannel("notifications:user:")
	assert.False(t, ok)
	_, ok = userFromChannel("chat:conv:1")
	assert.False(t, ok)
}

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register("u1", nil)
		require.NoError(t, err)
	}
	_, err := hub.Register("u1", nil)
	assert.Error(t, err)
	assert.Equal(t, maxConnsPerUser, hub.ConnCount("u1"))

	other, err := hub.Register("u2", nil)
	require.NoError(t, err)
	hub.UnregisterClient(other)
	hub.UnregisterClient(other)
	assert.Equal(t, 0, hub.ConnCount("u2"))

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.ConnCount("u1"))
	_, err = hub.Register("u1", nil)
	assert.Error(t, err)
}

func TestHub_BroadcastTargetsUser(t *testing.T) {
	hub := NewHub()
	a, err := hub.Register("u1", nil)
	require.NoError(t, err)
	b, err := hub.Register("u2", nil)
	require.NoError(t, err)

	hub.Broadcast("u1", "hello")
	assert.Equal(t, "hello", receive(t, a))
	assert.Empty(t, b.Send)

	hub.BroadcastAll("all")
	assert.Equal(t, "all", receive(t, a))
	assert.Equal(t, "all", receive(t, b))
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("u1", nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestNotifier_LocalDeliveryWithoutRedis(t *testing.T) {
	hub := NewHub()
	n := NewNotifier(nil)
	require.NoError(t, hub.StartWiring(context.Background(), n))

	c, err := hub.Register("u1", nil)
	require.NoError(t, err)

	event := models.Event{Type: models.EventMention, PhotoID: "p1", ActorID: "u2", CreatedAt: time.Now().UTC()}
	require.NoError(t, n.Publish(context.Background(), "u1", event))

	var got models.Event
	require.NoError(t, json.Unmarshal([]byte(receive(t, c)), &got))
	assert.Equal(t, models.EventMention, got.Type)
	assert.Equal(t, "p1", got.PhotoID)
	assert.Equal(t, "u2", got.ActorID)
}

func TestNotifier_NoopWithoutRedisOrHub(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), "u1", "payload"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "payload"))
}

func TestHub_WiringThroughRedis(t *testing.T) {
	rdb := newTestRedis(t)
	hub := NewHub()
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	c, err := hub.Register("u1", nil)
	require.NoError(t, err)
	other, err := hub.Register("u2", nil)
	require.NoError(t, err)

	require.NoError(t, n.Publish(context.Background(), "u1", models.Event{Type: models.EventLike, PhotoID: "p1", ActorID: "u2"}))
	assert.Contains(t, receive(t, c), `"type":"like"`)

	require.NoError(t, n.PublishBroadcast(context.Background(), "maintenance"))
	assert.Equal(t, "maintenance", receive(t, c))
	assert.Equal(t, "maintenance", receive(t, other))
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	payloads := make(chan string, 4)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		payloads <- payload
	}))

	require.NoError(t, n.PublishUser(context.Background(), "u1", "before-cancel"))
	assert.Eventually(t, func() bool { return len(payloads) == 1 }, testEventuallyTimeout, testPollInterval)

	cancel()
	time.Sleep(20 * time.Millisecond)
	<-payloads

	require.NoError(t, n.PublishUser(context.Background(), "u1", "after-cancel"))
	assert.Never(t, func() bool { return len(payloads) > 0 }, 200*time.Millisecond, testPollInterval)
}
