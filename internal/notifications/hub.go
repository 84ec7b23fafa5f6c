package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"photoshare/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub is a websocket hub that maps userID -> set of Clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates a new Hub instance for managing notifications.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("hub is shut down")
	}
	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	middleware.ActiveWebSockets.Inc()
	return client, nil
}

// UnregisterClient removes client from the hub. Repeated calls are no-ops.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		middleware.ActiveWebSockets.Dec()
	}
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// ConnCount returns the number of open connections of userID.
func (h *Hub) ConnCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Broadcast sends message to all connections for userID
func (h *Hub) Broadcast(userID, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// StartWiring connects the Notifier to this hub. With Redis it subscribes to the
// user channels; without it the notifier delivers to the hub directly.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	n.SetLocalDelivery(h.Broadcast)
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == broadcastChannel {
			h.BroadcastAll(payload)
			return
		}
		userID, ok := userFromChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for userID, userConns := range h.conns {
		for client := range userConns {
			middleware.ActiveWebSockets.Dec()
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				middleware.Logger.Debug("failed to write close message",
					slog.String("user_id", userID), slog.String("error", err.Error()))
			}
			if err := client.Conn.Close(); err != nil {
				middleware.Logger.Debug("failed to close websocket",
					slog.String("user_id", userID), slog.String("error", err.Error()))
			}
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
