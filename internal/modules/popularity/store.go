// README: Popularity store backed by Redis sorted sets.
package popularity

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Incr(ctx context.Context, key, member string) error {
	return s.redis.ZIncrBy(ctx, key, 1, member).Err()
}

// ExpireIfPersistent sets a TTL only when the key has none yet (TTL reports -1).
// The check and the set are two round trips; a concurrent bump may set it first, which is harmless.
func (s *Store) ExpireIfPersistent(ctx context.Context, key string, ttl time.Duration) error {
	cur, err := s.redis.TTL(ctx, key).Result()
	if err != nil {
		return err
	}
	if cur != -1 {
		return nil
	}
	return s.redis.Expire(ctx, key, ttl).Err()
}

func (s *Store) Top(ctx context.Context, key string, n int) ([]string, error) {
	return s.redis.ZRevRange(ctx, key, 0, int64(n-1)).Result()
}
