package counter

import (
	"context"
	"fmt"
	"time"

	"auction-core/utils"

	"github.com/redis/go-redis/v9"
)

// keyPrefix isolates auction-core counters from other tenants of the same
// Redis instance.
const keyPrefix = "auction:counters:"

// RedisStore is a Redis-backed sliding-window implementation of Store. Each
// key is a sorted set of event timestamps scored in unix nanoseconds; expired
// members are trimmed before every count so the window slides continuously.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore creates a counter store on an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Increment records an event and returns the in-window count atomically via a
// single pipeline round trip.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()
	// Unique member per event; two events in the same nanosecond must both count.
	member := fmt.Sprintf("%d-%s", now.UnixNano(), utils.GenerateID())
	floor := now.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, keyPrefix+key, "-inf", fmt.Sprintf("%d", floor))
	pipe.ZAdd(ctx, keyPrefix+key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, keyPrefix+key)
	pipe.Expire(ctx, keyPrefix+key, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("counter: redis increment %s: %w", key, err)
	}
	return card.Val(), nil
}

// Count trims expired events and returns the in-window count.
func (s *RedisStore) Count(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()
	floor := now.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, keyPrefix+key, "-inf", fmt.Sprintf("%d", floor))
	card := pipe.ZCard(ctx, keyPrefix+key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("counter: redis count %s: %w", key, err)
	}
	return card.Val(), nil
}
