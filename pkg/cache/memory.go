package cache

import (
	"context"
	"slices"
	"time"

	"github.com/carsna/carsna/pkg/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryCacheSize comfortably exceeds the number of option kinds.
const memoryCacheSize = 16

// MemoryCache is a process-local OptionCache.
type MemoryCache struct {
	entries *expirable.LRU[models.OptionKind, []models.Option]
}

// NewMemoryCache builds a cache whose entries live for ttl; a zero ttl never expires.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: expirable.NewLRU[models.OptionKind, []models.Option](memoryCacheSize, nil, ttl),
	}
}

func (c *MemoryCache) Get(_ context.Context, kind models.OptionKind) ([]models.Option, bool, error) {
	options, ok := c.entries.Get(kind)
	if !ok {
		return nil, false, nil
	}

	return slices.Clone(options), true, nil
}

func (c *MemoryCache) Set(_ context.Context, kind models.OptionKind, options []models.Option) error {
	c.entries.Add(kind, slices.Clone(options))

	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, kind models.OptionKind) error {
	c.entries.Remove(kind)

	return nil
}

func (c *MemoryCache) Close() error {
	c.entries.Purge()

	return nil
}
