package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careerbuddy/careerbuddy/internal/domain"
)

// Redis stores analysis results in Redis, relying on native key expiry for
// the TTL policy. Entries are JSON-encoded.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps an existing Redis client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, prefix: "analysis:"}
}

// Get returns the cached result for key. Expired keys are already gone.
func (c *Redis) Get(ctx context.Context, key string) (domain.AnalysisResult, bool, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AnalysisResult{}, false, nil
	}
	if err != nil {
		return domain.AnalysisResult{}, false, fmt.Errorf("op=cache.Get: %w", err)
	}
	var v domain.AnalysisResult
	if err := json.Unmarshal(b, &v); err != nil {
		// A corrupt entry is a miss, not an outage.
		return domain.AnalysisResult{}, false, nil
	}
	return v, true, nil
}

// Set stores v under key with ttl enforced by Redis.
func (c *Redis) Set(ctx context.Context, key string, v domain.AnalysisResult, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("op=cache.Set: %w", err)
	}
	if err := c.rdb.Set(ctx, c.prefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("op=cache.Set: %w", err)
	}
	return nil
}

// Sweep is a no-op: Redis expires keys itself.
func (c *Redis) Sweep(context.Context) (int, error) { return 0, nil }

// Ping reports backend reachability for readiness probes.
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
