package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis. Each subject is one string key
// "<prefix><subject>" holding the refresh value, with the entry TTL as the key
// TTL, so SET/GET/DEL give per-subject atomicity across every process that
// shares the Redis instance.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed store. Prefix may be empty.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "refresh:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(subject string) string {
	return r.prefix + subject
}

func (r *RedisStore) Put(ctx context.Context, subject, value string, ttl time.Duration) error {
	if err := checkPut(subject, ttl); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(subject), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, subject string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, subject string) error {
	if err := r.client.Del(ctx, r.key(subject)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
