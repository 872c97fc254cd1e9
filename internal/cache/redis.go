// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// DefaultRedisPrefix namespaces cache keys.
const DefaultRedisPrefix = "tool-miner:pub:"

// RedisCache stores JSON entries under prefix+id. It lets several miners
// on different hosts share fetched text.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps client. A zero ttl keeps entries until evicted.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects with the cache settings and pings the server.
func DialRedis(ctx context.Context, cfg types.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	return NewRedisCache(client, cfg.RedisPrefix, cfg.TTL), nil
}

func (c *RedisCache) key(id string) string {
	return c.prefix + SanitizeID(id)
}

// Get reads the entry for id.
func (c *RedisCache) Get(ctx context.Context, id string) (types.CacheEntry, bool, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.CacheEntry{}, false, nil
	}
	if err != nil {
		return types.CacheEntry{}, false, fmt.Errorf("reading cache entry %s: %w", id, err)
	}
	var e types.CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return types.CacheEntry{}, false, fmt.Errorf("parsing cache entry %s: %w", id, err)
	}
	return e, true, nil
}

// Put writes e. SET replaces the value atomically.
func (c *RedisCache) Put(ctx context.Context, e types.CacheEntry) error {
	if e.Publication.ID == "" {
		return ErrInvalidEntry
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(e.Publication.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", e.Publication.ID, err)
	}
	return nil
}

// Stats scans the key prefix and reads each entry.
func (c *RedisCache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := c.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}
		if err != nil {
			return s, fmt.Errorf("reading %s: %w", iter.Val(), err)
		}
		var e types.CacheEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return s, fmt.Errorf("parsing %s: %w", iter.Val(), err)
		}
		s.add(e.Completeness)
	}
	if err := iter.Err(); err != nil {
		return s, fmt.Errorf("scanning cache keys: %w", err)
	}
	return s, nil
}

// Close releases the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
