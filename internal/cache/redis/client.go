package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/metrics"
	"github.com/callportrait/backend/pkg/logger"
	"github.com/callportrait/backend/pkg/utils"
)

// Client caches rendered portrait responses. Everything here is
// best-effort: a cold or dead cache only costs a storage round trip.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl == 0 {
		ttl = 10 * time.Minute
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Key builds a portrait cache key from its parts.
func Key(parts ...string) string {
	return utils.CacheKey(append([]string{"portrait"}, parts...)...)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	logger.Debug("response cached", zap.String("key", key))
	return nil
}

// Get reports whether the key was present and decoded into value.
func (c *Client) Get(ctx context.Context, key string, value interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("portrait").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	metrics.CacheHits.WithLabelValues("portrait").Inc()
	logger.Debug("cache hit", zap.String("key", key))
	return true, nil
}

// InvalidatePeriod drops every cached response touching one period, after
// a recompute made them stale.
func (c *Client) InvalidatePeriod(ctx context.Context, periodType, periodKey string) error {
	pattern := fmt.Sprintf("portrait:*%s:%s*", periodType, periodKey)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("failed to delete cache key", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}
	logger.Info("period cache invalidated",
		zap.String("period_type", periodType),
		zap.String("period_key", periodKey))
	return nil
}
