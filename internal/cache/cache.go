// Package cache wraps go-redis/cache with a small typed read-through helper.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/logger"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = cache.ErrCacheMiss

// Cache defines a key/value cache with per-item TTL
//
//go:generate mockgen -source=cache.go -destination=../mocks/cache.go -package=mocks -mock_names=Cache=MockCache
type Cache interface {
	Get(ctx context.Context, key string, target any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UseCache returns the cached value for key, or calls load and caches its result.
// Values for which cacheable returns false are returned but not stored.
// Cache read errors other than a miss fall through to load.
func UseCache[T any](
	ctx context.Context,
	c Cache,
	key string,
	ttl time.Duration,
	load func() (T, error),
	cacheable func(T) bool,
) (T, error) {
	var v T
	err := c.Get(ctx, key, &v)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.WarnCtx(ctx, "cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err = load()
	if err != nil {
		return v, err
	}

	if cacheable == nil || cacheable(v) {
		if err := c.Set(ctx, key, v, ttl); err != nil {
			logger.WarnCtx(ctx, "cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return v, nil
}

// RedisCache implements Cache on top of go-redis/cache
type RedisCache struct {
	instance *cache.Cache
}

// NewRedisCache creates a cache backed by Redis with an optional local TinyLFU tier.
// A nil client yields a process-local cache, which requires withLocalCache.
func NewRedisCache(client redis.UniversalClient, withLocalCache bool) *RedisCache {
	opts := &cache.Options{}
	if client != nil {
		opts.Redis = client
	}
	if withLocalCache || client == nil {
		opts.LocalCache = cache.NewTinyLFU(10000, time.Minute)
	}
	return &RedisCache{instance: cache.New(opts)}
}

func (c *RedisCache) Get(ctx context.Context, key string, target any) error {
	return c.instance.Get(ctx, key, target)
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.instance.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.instance.Delete(ctx, key)
}
