// Package cache keeps computed last-used labels in Redis between menu writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "menuapi:last-used:"
	versionKey = keyPrefix + "version"
)

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("Connected to Redis", "addr", opts.Addr)
	return client, nil
}

// LastUsedCache stores one label map per week start date. Entries are keyed
// under a generation number; Invalidate bumps the generation so every week
// is recomputed without scanning keys.
type LastUsedCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLastUsedCache(client *redis.Client, ttl time.Duration) *LastUsedCache {
	return &LastUsedCache{client: client, ttl: ttl}
}

func (c *LastUsedCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *LastUsedCache) key(gen int64, week string) string {
	return fmt.Sprintf("%sg%d:%s", keyPrefix, gen, week)
}

// Get returns the cached labels for week, or ok=false on a miss. The
// generation it read is returned either way; pass it to Set so a result
// computed before an Invalidate is never stored under the newer generation.
func (c *LastUsedCache) Get(ctx context.Context, week string) (labels map[int64]string, gen int64, ok bool, err error) {
	gen, err = c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	raw, err := c.client.Get(ctx, c.key(gen, week)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}

	labels = make(map[int64]string)
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, gen, false, fmt.Errorf("decode cached labels: %w", err)
	}
	return labels, gen, true, nil
}

// Set stores labels for week under generation gen.
func (c *LastUsedCache) Set(ctx context.Context, gen int64, week string, labels map[int64]string) error {
	raw, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(gen, week), raw, c.ttl).Err()
}

// Invalidate drops every cached week.
func (c *LastUsedCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey).Err()
}
