// README: Idempotency-Key support; the first request claims the key and later ones replay its response.
package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "dispatch:idem:"
	idempotencyPending   = "pending:"
)

// StoredResponse is what a replayed request receives.
type StoredResponse struct {
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// Idempotency keeps a short-lived pending marker while a request runs and the
// final response for ttl afterwards.
type Idempotency struct {
	redis      *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewIdempotency(redis *redis.Client, ttl, pendingTTL time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if pendingTTL <= 0 {
		pendingTTL = 30 * time.Second
	}
	return &Idempotency{redis: redis, ttl: ttl, pendingTTL: pendingTTL}
}

// Fingerprint identifies the request body behind a key. The socket id is left
// out so a reconnecting client can retry with the same key.
func Fingerprint(req Request) string {
	req.SocketID = ""
	b, _ := json.Marshal(req)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Claim reserves key for this request. When the key was already used it
// returns the stored response, ErrDuplicateInFlight while the first request
// is still running, or ErrIdempotencyMismatch when the key came with a
// different body.
func (i *Idempotency) Claim(ctx context.Context, key, fingerprint string) (*StoredResponse, error) {
	k := idempotencyKeyPrefix + key
	ok, err := i.redis.SetNX(ctx, k, idempotencyPending+fingerprint, i.pendingTTL).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	val, err := i.redis.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDuplicateInFlight
	}
	if err != nil {
		return nil, err
	}
	if fp, pending := strings.CutPrefix(val, idempotencyPending); pending {
		if fp != fingerprint {
			return nil, ErrIdempotencyMismatch
		}
		return nil, ErrDuplicateInFlight
	}
	var stored StoredResponse
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		return nil, err
	}
	if stored.Fingerprint != fingerprint {
		return nil, ErrIdempotencyMismatch
	}
	return &stored, nil
}

func (i *Idempotency) Complete(ctx context.Context, key, fingerprint string, status int, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	v, err := json.Marshal(StoredResponse{Status: status, Body: b, Fingerprint: fingerprint})
	if err != nil {
		return err
	}
	return i.redis.Set(ctx, idempotencyKeyPrefix+key, v, i.ttl).Err()
}

// Release frees the key after a failure so the caller may retry.
func (i *Idempotency) Release(ctx context.Context, key string) error {
	return i.redis.Del(ctx, idempotencyKeyPrefix+key).Err()
}
