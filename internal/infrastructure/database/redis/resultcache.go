package redis

import (
	"context"
	"errors"
	"time"

	"github.com/turtacn/moldock/internal/application/docking"
)

// ResultCache adapts Cache to the orchestrator's result-cache port.  A
// docking result is immutable for a given molecule/target pair, so a long
// TTL is safe.
type ResultCache struct {
	cache Cache
	ttl   time.Duration
}

// NewResultCache returns a result cache with ttl (0 means 24h).
func NewResultCache(cache Cache, ttl time.Duration) *ResultCache {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &ResultCache{cache: cache, ttl: ttl}
}

func resultKey(targetName, moleculeID string) string {
	return "result:" + targetName + ":" + moleculeID
}

// GetResult returns the cached result, or nil on a miss.
func (r *ResultCache) GetResult(ctx context.Context, targetName, moleculeID string) (*docking.Result, error) {
	var res docking.Result
	if err := r.cache.Get(ctx, resultKey(targetName, moleculeID), &res); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

// SetResult stores a completed result.
func (r *ResultCache) SetResult(ctx context.Context, targetName, moleculeID string, res *docking.Result) error {
	return r.cache.Set(ctx, resultKey(targetName, moleculeID), res, r.ttl)
}
