package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so every server instance sees the same set.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a Store backed by rdb.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(sessionID string) string { return "session:" + sessionID }
func userKey(userID string) string       { return "user_sessions:" + userID }

func (s *RedisStore) Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), userID, ttl)
	pipe.SAdd(ctx, userKey(userID), sessionID)
	pipe.Expire(ctx, userKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

func (s *RedisStore) Revoke(ctx context.Context, sessionID string) error {
	userID, err := s.Lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userKey(userID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *RedisStore) RevokeUser(ctx context.Context, userID string) error {
	ids, err := s.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userKey(userID))
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}
