package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tournevent/lalamove/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const keyPrefix = "delivro:cities:"

// RedisCityCache is a CityCache shared between replicas through Redis.
type RedisCityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *otelzap.Logger
}

// NewRedisCityCache connects to the Redis server at rawURL
// (e.g. "redis://:password@localhost:6379/0") and checks it is reachable.
func NewRedisCityCache(ctx context.Context, rawURL string, ttl time.Duration, logger *otelzap.Logger) (*RedisCityCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", opts.Addr))
	return NewRedisCityCacheWithClient(client, ttl, logger), nil
}

// NewRedisCityCacheWithClient wraps an existing client.
func NewRedisCityCacheWithClient(client *redis.Client, ttl time.Duration, logger *otelzap.Logger) *RedisCityCache {
	return &RedisCityCache{client: client, ttl: ttl, logger: logger}
}

// Get implements CityCache.
func (c *RedisCityCache) Get(ctx context.Context, carrier string) ([]shipper.City, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+carrier).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cities of %s: %w", carrier, err)
	}

	var cities []shipper.City
	if err := json.Unmarshal(raw, &cities); err != nil {
		c.logger.Ctx(ctx).Warn("Discarding malformed cached cities",
			zap.String("carrier", carrier),
			zap.Error(err),
		)
		return nil, false, nil
	}
	return cities, true, nil
}

// Set implements CityCache.
func (c *RedisCityCache) Set(ctx context.Context, carrier string, cities []shipper.City) error {
	raw, err := json.Marshal(cities)
	if err != nil {
		return fmt.Errorf("encoding cities of %s: %w", carrier, err)
	}
	if err := c.client.Set(ctx, keyPrefix+carrier, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing cities of %s: %w", carrier, err)
	}
	return nil
}

// Close implements CityCache.
func (c *RedisCityCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("closing redis connection: %w", err)
	}
	return nil
}

var _ CityCache = (*RedisCityCache)(nil)
