// Package cache keeps read-mostly catalog data in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/skillhub/internal/models"
)

const categoriesKey = "skillhub:categories"

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, address, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// CategoryCache stores the JSON encoded category list under one key
type CategoryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCategoryCache creates a cache. A zero ttl keeps entries until invalidated.
func NewCategoryCache(client redis.UniversalClient, ttl time.Duration) *CategoryCache {
	return &CategoryCache{client: client, ttl: ttl}
}

// Get returns the cached list and whether it was present
func (c *CategoryCache) Get(ctx context.Context) ([]*models.Category, bool, error) {
	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read category cache: %w", err)
	}

	var categories []*models.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		// Drop an entry we cannot read so the next Set replaces it
		c.client.Del(ctx, categoriesKey)
		return nil, false, fmt.Errorf("failed to decode category cache: %w", err)
	}
	return categories, true, nil
}

// Set replaces the cached list
func (c *CategoryCache) Set(ctx context.Context, categories []*models.Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	if err := c.client.Set(ctx, categoriesKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write category cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached list
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, categoriesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate category cache: %w", err)
	}
	return nil
}

// HealthCheck pings the backing server
func (c *CategoryCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
