package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carsna/carsna/pkg/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "carsna:options:"

// RedisCache shares option lists between API replicas.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to the redis server at url (redis://[:password@]host:port/db).
// Entries expire after ttl; a zero ttl never expires.
func NewRedisCache(ctx context.Context, logger *slog.Logger, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("%w: failed to connect to Redis: %w", ErrCacheUnavailable, err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewRedisCacheWithClient(client, ttl, logger), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func key(kind models.OptionKind) string {
	return keyPrefix + string(kind)
}

func (c *RedisCache) Get(ctx context.Context, kind models.OptionKind) ([]models.Option, bool, error) {
	payload, err := c.client.Get(ctx, key(kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to read %s options: %w", kind, err)
	}

	var options []models.Option

	err = json.Unmarshal(payload, &options)
	if err != nil {
		c.logger.WarnContext(ctx, "Dropping unreadable cached options", "kind", kind, "error", err)

		return nil, false, nil
	}

	return options, true, nil
}

func (c *RedisCache) Set(ctx context.Context, kind models.OptionKind, options []models.Option) error {
	payload, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to marshal %s options: %w", kind, err)
	}

	err = c.client.Set(ctx, key(kind), payload, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache %s options: %w", kind, err)
	}

	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, kind models.OptionKind) error {
	err := c.client.Del(ctx, key(kind)).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate %s options: %w", kind, err)
	}

	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
