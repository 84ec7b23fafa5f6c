// Package notifications delivers realtime events to connected users through
// Redis pub/sub and a websocket hub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notifications:user:"
	broadcastChannel  = "notifications:broadcast"
)

// Notifier provides helpers to publish notifications into Redis channels.
// Without Redis it hands payloads straight to the local delivery function.
type Notifier struct {
	rdb   *redis.Client
	local func(userID, payload string)
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// SetLocalDelivery sets the in-process fallback used when Redis is not configured.
func (n *Notifier) SetLocalDelivery(fn func(userID, payload string)) {
	n.local = fn
}

// Publish sends event to recipientID.
func (n *Notifier) Publish(ctx context.Context, recipientID string, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = n.PublishUser(ctx, recipientID, string(payload))
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.NotificationsPublished.WithLabelValues(event.Type, result).Inc()
	return err
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID, payload string) error {
	if n.rdb == nil {
		if n.local != nil {
			n.local(userID, payload)
		}
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends a notification payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// StartPatternSubscriber subscribes to every user channel and the broadcast
// channel, calling onMessage for each incoming message until ctx is done.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", broadcastChannel)
	// wait for the subscription so publishes right after start are not lost
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// userFromChannel extracts the user id from a user channel name.
func userFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, userChannelPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(channel, userChannelPrefix)
	return id, id != ""
}
