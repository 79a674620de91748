package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis with a TTL matching their expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}

func (r *RedisStore) Create(ctx context.Context, s Session) error {
	if s.ID == "" || s.User.ID == "" {
		return fmt.Errorf("session: missing id or user id")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session: expires_at must be in the future")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(s.ID), data, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return Session{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}
