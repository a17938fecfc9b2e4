package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"PriceTracker/internal/config"
	"PriceTracker/internal/domain"
	"PriceTracker/internal/ports"
)

const keyPrefix = "pricetracker:verdict:"

// VerdictCache remembers classifier labels per article URL in Redis.
type VerdictCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.VerdictCache = (*VerdictCache)(nil)

// NewRedisClient connects to the configured Redis and pings it.
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// NewVerdictCache wraps a client; a non-positive ttl keeps entries forever.
func NewVerdictCache(client *redis.Client, ttl time.Duration) *VerdictCache {
	if ttl < 0 {
		ttl = 0
	}
	return &VerdictCache{client: client, ttl: ttl}
}

// Get returns the cached label for url, if any.
func (c *VerdictCache) Get(ctx context.Context, url string) (domain.Relevance, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+url).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get verdict: %w", err)
	}

	label, ok := domain.ParseRelevance(raw)
	if !ok {
		return "", false, nil
	}
	return label, true, nil
}

// Put stores the label for url.
func (c *VerdictCache) Put(ctx context.Context, url string, label domain.Relevance) error {
	if err := c.client.Set(ctx, keyPrefix+url, string(label), c.ttl).Err(); err != nil {
		return fmt.Errorf("put verdict: %w", err)
	}
	return nil
}
