// Package cache stores reference option lists between requests.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/carsna/carsna/pkg/models"
)

// DefaultTTL bounds how stale a cached option list may get.
const DefaultTTL = 5 * time.Minute

var ErrCacheUnavailable = errors.New("option cache unavailable")

// OptionCache keeps option lists keyed by option kind. Get reports false on a miss.
// Entries expire after the TTL the cache was built with.
type OptionCache interface {
	Get(ctx context.Context, kind models.OptionKind) ([]models.Option, bool, error)
	Set(ctx context.Context, kind models.OptionKind, options []models.Option) error
	Invalidate(ctx context.Context, kind models.OptionKind) error
	Close() error
}
