// Package rediscache provides a Redis-backed input.Cache for resolved type metadata,
// letting a fleet of processes share one metadata cache.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/toyz/axon-input/pkg/input"
)

// Config contains configuration options for the Redis cache
type Config struct {
	// Client is the Redis client instance
	Client redis.UniversalClient

	// KeyPrefix is prepended to every cache key.
	// Default: "" (cache keys already carry input.CacheKeyPrefix)
	KeyPrefix string

	// TTL expires entries after the given duration. Zero keeps them until evicted.
	TTL time.Duration
}

// Cache implements input.Cache using Redis
type Cache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

var _ input.Cache = (*Cache)(nil)

// New creates a new Redis-based metadata cache
func New(config Config) (*Cache, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Cache{
		client:    config.Client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

// Has reports whether key is cached
func (c *Cache) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key %s: %w", c.keyPrefix+key, err)
	}
	return n > 0, nil
}

// Get retrieves the metadata stored under key, or nil when there is none
func (c *Cache) Get(ctx context.Context, key string) (*input.TypeMetadata, error) {
	redisKey := c.keyPrefix + key
	raw, err := c.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get key %s: %w", redisKey, err)
	}

	var meta input.TypeMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", redisKey, err)
	}
	return &meta, nil
}

// Set stores meta under key
func (c *Cache) Set(ctx context.Context, key string, meta *input.TypeMetadata) error {
	redisKey := c.keyPrefix + key
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %s: %w", redisKey, err)
	}
	if err := c.client.Set(ctx, redisKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", redisKey, err)
	}
	return nil
}

// Delete removes key from the cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", c.keyPrefix+key, err)
	}
	return nil
}

// Clear removes every metadata entry under the prefix
func (c *Cache) Clear(ctx context.Context) error {
	pattern := c.keyPrefix + input.CacheKeyPrefix + "*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", pattern, err)
	}
	return nil
}
