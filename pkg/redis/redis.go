// Package redispkg builds Redis clients from REDIS_URL-style strings.
package redispkg

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"photoshare/internal/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const defaultAddr = "redis:6379"

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// ParseRedisURL accepts either a plain `host:port` or a `redis://`/`rediss://`
// URL and returns the address, password, database number and whether TLS was requested.
func ParseRedisURL(raw string) (addr, password string, db int, useTLS bool) {
	if raw == "" {
		return defaultAddr, "", 0, false
	}
	addr = raw
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		useTLS = strings.HasPrefix(raw, "rediss://")
		if u, err := url.Parse(raw); err == nil {
			addr = u.Host
			if u.User != nil {
				if pw, ok := u.User.Password(); ok {
					password = pw
				}
			}
			if p := strings.Trim(u.Path, "/"); p != "" {
				if dbn, err := strconv.Atoi(p); err == nil {
					db = dbn
				}
			}
		}
	}
	return addr, password, db, useTLS
}

// NewClient builds a redis client from raw without contacting the server. It
// disables maintnotifications to avoid handshake attempts on servers that
// don't implement the subcommand, and counts command errors in RedisErrors.
func NewClient(raw string) *redis.Client {
	var opts *redis.Options
	if strings.Contains(raw, "://") {
		if parsed, err := redis.ParseURL(raw); err == nil {
			opts = parsed
		}
	}
	if opts == nil {
		addr, password, db, _ := ParseRedisURL(raw)
		opts = &redis.Options{Addr: addr, Password: password, DB: db}
	}
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})
	return client
}

// Connect builds a client and pings it. The client is closed when the ping fails.
func Connect(ctx context.Context, raw string) (*redis.Client, error) {
	client := NewClient(raw)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return client, nil
}
