package cache

import (
	"context"
	"errors"
	"fmt"
	"route-board-service/internal/platform/obs"
	"route-board-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDirectionsCache stores directions results as JSON values with an
// expiry. It lets several server instances share routed paths.
type RedisDirectionsCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisDirectionsCache(client redis.UniversalClient, ttl time.Duration) *RedisDirectionsCache {
	return &RedisDirectionsCache{client: client, prefix: "routeboard:", ttl: ttl}
}

func (r *RedisDirectionsCache) Get(ctx context.Context, key string) (_ ports.DirectionsResult, _ bool, err error) {
	defer obs.Time(ctx, "directions.redis.Get")(&err)

	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.DirectionsResult{}, false, nil
	}
	if err != nil {
		return ports.DirectionsResult{}, false, fmt.Errorf("redis directions cache get: %w", err)
	}

	res, err := decodeResult(b)
	if err != nil {
		return ports.DirectionsResult{}, false, fmt.Errorf("redis directions cache get: %w", err)
	}
	return res, true, nil
}

func (r *RedisDirectionsCache) Put(ctx context.Context, key string, res ports.DirectionsResult) (err error) {
	defer obs.Time(ctx, "directions.redis.Put")(&err)

	b, err := encodeResult(res)
	if err != nil {
		return fmt.Errorf("redis directions cache put: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis directions cache put: %w", err)
	}
	return nil
}
