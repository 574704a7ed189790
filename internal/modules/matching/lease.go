// README: Worker reservation leases backed by Redis SET NX with expiry.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type LeaseStore struct {
	redis *redis.Client
}

func NewLeaseStore(redis *redis.Client) *LeaseStore {
	return &LeaseStore{redis: redis}
}

// Reserve claims the worker for holder until ttl elapses. It returns false
// when another request already holds the worker.
func (s *LeaseStore) Reserve(ctx context.Context, workerID int64, holder string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return s.redis.SetNX(ctx, leaseKey(workerID), holder, ttl).Result()
}

func leaseKey(workerID int64) string {
	return fmt.Sprintf(workerLeaseKey, workerID)
}
