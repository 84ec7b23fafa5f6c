package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"photoshare/internal/models"
	"photoshare/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocket_DeliversLikeEvent(t *testing.T) {
	hub := notifications.NewHub()
	notifier := notifications.NewNotifier(nil)
	e := newTestEnvWith(t, func(d *Deps) {
		d.Hub = hub
		d.Notifier = notifier
	})
	require.NoError(t, hub.StartWiring(context.Background(), notifier))

	alice := e.signup(t, "alice", "Alice", "Ng")
	bob := e.signup(t, "bob", "Bob", "Ray")
	p := e.photo(t, alice, "p.jpg")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() {
		_ = hub.Shutdown(context.Background())
		_ = e.app.Shutdown()
	})

	header := http.Header{}
	header.Set("Authorization", "Bearer "+alice.Token)
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return hub.ConnCount(alice.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	status, _ := e.do(t, http.MethodPost, "/photos/"+p.ID+"/like", bob.Token, nil)
	require.Equal(t, http.StatusOK, status.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)

	var event models.Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, models.EventLike, event.Type)
	assert.Equal(t, p.ID, event.PhotoID)
	assert.Equal(t, bob.ID, event.ActorID)
}

func TestWebsocket_RejectsMissingSession(t *testing.T) {
	e := newTestEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.Shutdown() })

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
