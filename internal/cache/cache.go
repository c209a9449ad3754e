// Package cache memoizes backend translations in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	redis "github.com/redis/go-redis/v9"

	"translatex/internal/backend"
	"translatex/internal/logger"
)

// DefaultPrefix is prepended to every cache key.
const DefaultPrefix = "translatex:tr:"

// Cache wraps a backend. Identical (text, src, dst) requests are answered
// from Redis. Redis failures are logged and fall through to the backend.
type Cache struct {
	next   backend.Backend
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the expiration of cached translations. Zero keeps them
// forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New wraps next with a cache stored through client.
func New(next backend.Backend, client *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		next:   next,
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open connects to the Redis server at address and wraps next.
func Open(next backend.Backend, address, password string, db int, opts ...Option) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return New(next, rdb, opts...)
}

// Name reports the wrapped backend's name.
func (c *Cache) Name() string {
	return backend.NameOf(c.next)
}

// Ping checks the connection to Redis.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Translate returns the cached translation or asks the wrapped backend and
// stores its answer. Errors are never cached.
func (c *Cache) Translate(ctx context.Context, text, src, dst string) (string, error) {
	key := c.key(text, src, dst)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		logger.Debug("translation cache hit", logger.String("key", key))
		return val, nil
	case err != redis.Nil:
		logger.Warn("translation cache read failed", logger.String("key", key), logger.Err(err))
	}

	out, err := c.next.Translate(ctx, text, src, dst)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, out, c.ttl).Err(); err != nil {
		logger.Warn("translation cache write failed", logger.String("key", key), logger.Err(err))
	}
	return out, nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) key(text, src, dst string) string {
	sum := sha256.Sum256([]byte(src + "|" + dst + "|" + text))
	return c.prefix + hex.EncodeToString(sum[:])
}
