// Package cache adds a Redis read-through cache in front of listing reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wanderlink/internal/logging"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

const (
	keyPrefix   = "listing:"
	dialTimeout = 5 * time.Second
)

// Client is the subset of the Redis API the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(dialCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ListingCache wraps a repository and caches single-listing reads. Every
// listing mutation evicts the cached copy. Cache failures degrade to the
// underlying repository.
type ListingCache struct {
	store.Repository
	client Client
	ttl    time.Duration
}

// NewListingCache decorates repo with a cache. A non-positive ttl means one hour.
func NewListingCache(repo store.Repository, client Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ListingCache{Repository: repo, client: client, ttl: ttl}
}

// GetListing serves from Redis when possible.
func (c *ListingCache) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	switch {
	case err == nil:
		var listing models.Listing
		if err := json.Unmarshal(data, &listing); err == nil {
			return &listing, nil
		}
		logging.FromContext(ctx).Warn().Str("listing_id", id).Msg("discarding undecodable cached listing")
	case !errors.Is(err, redis.Nil):
		logging.FromContext(ctx).Warn().Err(err).Str("listing_id", id).Msg("listing cache read failed")
	}

	listing, err := c.Repository.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, listing)
	return listing, nil
}

// UpdateListing writes through and evicts the cached copy.
func (c *ListingCache) UpdateListing(ctx context.Context, id, ownerID string, listing *models.Listing) (*models.Listing, error) {
	updated, err := c.Repository.UpdateListing(ctx, id, ownerID, listing)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, id)
	return updated, nil
}

// SetVerifyStatus writes through and evicts the cached copy.
func (c *ListingCache) SetVerifyStatus(ctx context.Context, id string, status models.VerifyStatus) (*models.Listing, error) {
	updated, err := c.Repository.SetVerifyStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, id)
	return updated, nil
}

func (c *ListingCache) set(ctx context.Context, listing *models.Listing) {
	data, err := json.Marshal(listing)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+listing.ID, data, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("listing_id", listing.ID).Msg("listing cache write failed")
	}
}

func (c *ListingCache) evict(ctx context.Context, id string) {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("listing_id", id).Msg("listing cache eviction failed")
	}
}
