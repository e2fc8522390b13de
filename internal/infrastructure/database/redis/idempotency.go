// internal/infrastructure/database/redis/idempotency.go
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "idem:checkout:"
	// pendingMarker holds a key while its checkout is still running
	pendingMarker = "pending"
	// pendingTTL frees a reservation whose owner died before Remember or Release
	pendingTTL = 30 * time.Second
)

// releaseScript deletes a key only while it still holds the pending marker
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore maps checkout idempotency keys to order ids
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIdempotencyStore creates a store whose keys expire after ttl
func NewIdempotencyStore(c *Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: c.Redis, ttl: ttl}
}

// Reserve claims key for a new checkout. When the key is already taken it
// returns the recorded order id, or an empty id while the other checkout is
// still running.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	k := idempotencyPrefix + key

	ok, err := s.rdb.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}

	orderID, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET, let the caller try again
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if orderID == pendingMarker {
		return "", false, nil
	}
	return orderID, false, nil
}

// Remember records orderID for a key reserved by this checkout
func (s *IdempotencyStore) Remember(ctx context.Context, key, orderID string) error {
	return s.rdb.Set(ctx, idempotencyPrefix+key, orderID, s.ttl).Err()
}

// Release frees a reservation whose checkout failed. Recorded order ids are kept.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, s.rdb, []string{idempotencyPrefix + key}, pendingMarker).Err()
}
