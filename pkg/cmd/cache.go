package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/carsna/carsna/pkg/cache"
)

// NewOptionCache connects to redis when a URL is given. An unreachable redis falls
// back to an in-process cache so the API still starts. Entries live for ttl.
func NewOptionCache(ctx context.Context, logger *slog.Logger, redisURL string, ttl time.Duration) cache.OptionCache {
	if redisURL == "" {
		return cache.NewMemoryCache(ttl)
	}

	redisCache, err := cache.NewRedisCache(ctx, logger, redisURL, ttl)
	if err != nil {
		logger.WarnContext(ctx, "Redis unavailable, using in-memory option cache", "error", err)

		return cache.NewMemoryCache(ttl)
	}

	return redisCache
}
