package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/domain/user"
)

// Cache key patterns:
// - listing:{listing_id} - 5m TTL, listing snapshot
// - user:{user_id} - 5m TTL, profile cache

// CacheConfig contains configuration for caching
type CacheConfig struct {
	ListingTTL time.Duration
	UserTTL    time.Duration
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ListingTTL: 5 * time.Minute,
		UserTTL:    5 * time.Minute,
	}
}

// CacheStore handles read-through caching in Redis. A cache miss returns
// (nil, nil); callers fall back to the record store.
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
}

func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	return &CacheStore{client: client, config: config}
}

// --- Listing cache ---

func listingKey(id uuid.UUID) string {
	return fmt.Sprintf("listing:%s", id)
}

func (c *CacheStore) GetListing(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	data, err := c.client.Get(ctx, listingKey(id)).Result()
	if err == goredis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var l listing.Listing
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *CacheStore) SetListing(ctx context.Context, l listing.Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listingKey(l.ID), data, c.config.ListingTTL).Err()
}

func (c *CacheStore) InvalidateListing(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, listingKey(id)).Err()
}

// --- User cache ---

func userKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (c *CacheStore) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	data, err := c.client.Get(ctx, userKey(id)).Result()
	if err == goredis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var u user.User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *CacheStore) SetUser(ctx context.Context, u user.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userKey(u.ID), data, c.config.UserTTL).Err()
}

func (c *CacheStore) InvalidateUser(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, userKey(id)).Err()
}
