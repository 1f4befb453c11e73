// Package cache provides the read-through cache used for project views.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yukikurage/project-collab-api/internal/metrics"
)

// Cache stores JSON encoded values under string keys. Every key carries a
// generation that Invalidate bumps, so a value read from the database before
// an invalidation can never be written back after it.
type Cache interface {
	// Get decodes the value under key into dest and reports whether it was
	// found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Generation returns the current generation of key, 0 if it was never
	// invalidated.
	Generation(ctx context.Context, key string) (int64, error)

	// SetIfGeneration stores value only while the generation of key still
	// equals gen, and reports whether it did.
	SetIfGeneration(ctx context.Context, key string, gen int64, value interface{}) (bool, error)

	// Invalidate bumps the generation of key and drops its value.
	Invalidate(ctx context.Context, key string) error
}

var errStaleGeneration = errors.New("cache generation changed")

// RedisCache is a Cache backed by Redis with a key prefix and a fixed TTL.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedis creates a Redis cache. m may be nil.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, m *metrics.Metrics) *RedisCache {
	return &RedisCache{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		metrics: m,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metrics.IncCacheLookup("miss")
			return false, nil
		}
		c.metrics.IncCacheLookup("error")
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.metrics.IncCacheLookup("error")
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.metrics.IncCacheLookup("hit")
	return true, nil
}

func (c *RedisCache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := generationOf(c.client.Get(ctx, c.generationKey(key)))
	if err != nil {
		return 0, fmt.Errorf("cache generation error: %w", err)
	}
	return gen, nil
}

// SetIfGeneration watches the generation key, so an Invalidate that lands
// between the check and the write aborts the transaction.
func (c *RedisCache) SetIfGeneration(ctx context.Context, key string, gen int64, value interface{}) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache marshal error: %w", err)
	}

	genKey := c.generationKey(key)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generationOf(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.prefix+key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("cache set error: %w", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(key))
		pipe.Del(ctx, c.prefix+key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	return nil
}

func (c *RedisCache) generationKey(key string) string {
	return c.prefix + key + ":gen"
}

func generationOf(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Ping checks if the Redis connection is healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Noop never stores anything. Used when caching is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (Noop) Generation(context.Context, string) (int64, error) { return 0, nil }

func (Noop) SetIfGeneration(context.Context, string, int64, interface{}) (bool, error) {
	return false, nil
}

func (Noop) Invalidate(context.Context, string) error { return nil }

// ProjectKey is the cache key of a project view.
func ProjectKey(id uint64) string {
	return fmt.Sprintf("project:%d", id)
}
