package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/napcube/pod-reservation-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const availabilityKeyPrefix = "availability:"

// AvailabilityCache stores per-date availability listings
type AvailabilityCache interface {
	Get(ctx context.Context, date string) ([]models.LocationAvailability, bool, error)
	Set(ctx context.Context, date string, list []models.LocationAvailability) error
	Invalidate(ctx context.Context, date string) error
	InvalidateAll(ctx context.Context) error
}

// NewRedisClient creates a Redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisAvailabilityCache keeps availability listings as JSON under availability:{date}
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAvailabilityCache creates a new Redis-backed availability cache
func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
	}
}

func availabilityKey(date string) string {
	return availabilityKeyPrefix + date
}

// Get returns the cached listing for a date; ok is false on a miss
func (c *RedisAvailabilityCache) Get(ctx context.Context, date string) ([]models.LocationAvailability, bool, error) {
	val, err := c.client.Get(ctx, availabilityKey(date)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get availability from redis: %w", err)
	}

	var list []models.LocationAvailability
	if err := json.Unmarshal([]byte(val), &list); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal availability: %w", err)
	}

	return list, true, nil
}

// Set stores a listing for the configured TTL
func (c *RedisAvailabilityCache) Set(ctx context.Context, date string, list []models.LocationAvailability) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}

	if err := c.client.Set(ctx, availabilityKey(date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set availability in redis: %w", err)
	}

	return nil
}

// Invalidate drops the listing for one date
func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, date string) error {
	if err := c.client.Del(ctx, availabilityKey(date)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate availability: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached listing (capacity changes affect all dates)
func (c *RedisAvailabilityCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, availabilityKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan availability keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate availability: %w", err)
	}
	return nil
}
