package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces console keys in a shared Redis.
const DefaultRedisPrefix = "leadconsole:"

// RedisTokenStore keeps values in Redis under a key prefix. Values do not
// expire.
type RedisTokenStore struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisTokenStore wraps an existing client.
func NewRedisTokenStore(rdb redis.Cmdable, prefix string) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, prefix: prefix}
}

// NewRedisTokenStoreFromURL dials the Redis at url (redis://[:password@]host:port/db).
func NewRedisTokenStoreFromURL(url string) (*RedisTokenStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisTokenStore(redis.NewClient(opts), DefaultRedisPrefix), nil
}

func (r *RedisTokenStore) key(k string) string { return r.prefix + k }

func (r *RedisTokenStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (r *RedisTokenStore) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisTokenStore) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
