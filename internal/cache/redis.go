package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/airhive/airline-backend/internal/config"
	"github.com/airhive/airline-backend/internal/models"
)

// FlightCache caches flight search results in Redis. A nil *FlightCache
// is valid and behaves as a cache miss, so callers never have to check
// whether Redis is configured.
type FlightCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewFlightCache creates a flight cache. Returns nil when no Redis
// address is configured.
func NewFlightCache(cfg config.RedisConfig, logger *logrus.Logger) *FlightCache {
	if cfg.Addr == "" {
		return nil
	}

	return &FlightCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:    cfg.CacheTTL,
		logger: logger,
	}
}

// GetSearch returns the cached result for a search key, or nil on miss
func (c *FlightCache) GetSearch(ctx context.Context, key string) ([]models.FlightWithAirports, error) {
	if c == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read flight cache: %w", err)
	}

	var flights []models.FlightWithAirports
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, fmt.Errorf("failed to decode flight cache: %w", err)
	}

	return flights, nil
}

// SetSearch stores a search result under key for the configured TTL
func (c *FlightCache) SetSearch(ctx context.Context, key string, flights []models.FlightWithAirports) error {
	if c == nil {
		return nil
	}

	payload, err := json.Marshal(flights)
	if err != nil {
		return fmt.Errorf("failed to encode flight cache: %w", err)
	}

	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate drops every cached search result. Called whenever a
// flight is created or changes status.
func (c *FlightCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, "flights:search:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.WithError(err).Warn("Failed to invalidate flight cache key")
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to scan flight cache keys")
	}
}

// SearchKey builds the cache key for a flight search
func SearchKey(departureCode, arrivalCode, date string, showAll bool) string {
	return fmt.Sprintf("flights:search:%s:%s:%s:%t", departureCode, arrivalCode, date, showAll)
}
