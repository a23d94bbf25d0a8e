package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

var ErrCacheMiss = apperrors.New(apperrors.ErrCodeNotFound, "cache miss")

// Cache is a JSON-serialising key-value cache.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

type redisCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
}

// CacheOption customises a cache instance.
type CacheOption func(*redisCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.defaultTTL = ttl }
}

// NewCache returns a Cache over client.
func NewCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	c := &redisCache{
		client:     client,
		logger:     log,
		prefix:     "moldock:",
		defaultTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expirations by +/- 10% so hot keys do not expire in
// lockstep.
func (c *redisCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	rdb, err := c.client.Raw()
	if err != nil {
		return err
	}
	data, err := rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ErrCacheMiss
		}
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache get "+key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "cache decode "+key)
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	rdb, err := c.client.Raw()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "cache encode "+key)
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if err := rdb.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache set "+key)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	rdb, err := c.client.Raw()
	if err != nil {
		return err
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := rdb.Del(ctx, full...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache delete")
	}
	return nil
}

func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	rdb, err := c.client.Raw()
	if err != nil {
		return false, err
	}
	n, err := rdb.Exists(ctx, c.fullKey(key)).Result()
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache exists "+key)
	}
	return n > 0, nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}
