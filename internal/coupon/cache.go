package coupon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis cache for coupon records. A nil cache (or a
// nil client) degrades to a no-op so callers never branch.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(id uuid.UUID) string {
	return "coupon:" + id.String()
}

// Get unmarshals a cached coupon. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (Coupon, bool, error) {
	if c == nil || c.client == nil {
		return Coupon{}, false, nil
	}
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Coupon{}, false, nil
		}
		return Coupon{}, false, err
	}
	var coupon Coupon
	if err := json.Unmarshal(data, &coupon); err != nil {
		return Coupon{}, false, err
	}
	return coupon, true, nil
}

// Set stores a coupon with the configured TTL.
func (c *Cache) Set(ctx context.Context, coupon Coupon) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(coupon)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(coupon.ID), data, c.ttl).Err()
}

// Invalidate drops a cached coupon after a mutation.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(id)).Err()
}
