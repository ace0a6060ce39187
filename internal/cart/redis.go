package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares cart snapshots across storefront instances.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{client: client, baseTTL: ttl}
}

func cacheKey(cartID string) string {
	return "cart:" + cartID
}

func (r *RedisCache) Get(ctx context.Context, cartID string) (*Snapshot, error) {
	data, err := r.client.Get(ctx, cacheKey(cartID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	return &snap, nil
}

func (r *RedisCache) Set(ctx context.Context, cartID string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	if err := r.client.Set(ctx, cacheKey(cartID), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("failed to store cart snapshot: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cacheKey(cartID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}
	return nil
}

// ttl jitters the expiry by up to 10% so snapshots of many carts do not
// expire in the same instant.
func (r *RedisCache) ttl() time.Duration {
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL) / 10))
	return r.baseTTL + jitter
}
