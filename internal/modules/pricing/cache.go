// README: Redis read-through cache for the whole ride type table.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rideTypesKey = "ride_types"
	// DefaultCacheTTL bounds how stale a cached pricing table can get.
	DefaultCacheTTL = time.Hour
)

type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(redis *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{redis: redis, ttl: ttl}
}

// Get returns the cached table and whether it was present.
func (c *Cache) Get(ctx context.Context) ([]RideType, bool, error) {
	raw, err := c.redis.Get(ctx, rideTypesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []RideType
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *Cache) Set(ctx context.Context, types []RideType) error {
	b, err := json.Marshal(types)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, rideTypesKey, b, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, rideTypesKey).Err()
}
