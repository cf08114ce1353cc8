package market

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rexeee/mai-protocol/pkg/cache"
)

// CachedSource wraps a Source with a TTL cache. Market configuration is
// immutable for the lifetime of a deployed instrument, so the TTL only
// bounds memory, not staleness risk.
type CachedSource struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedSource creates a caching wrapper around src.
func NewCachedSource(src Source, c cache.Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: src,
		cache:  c,
		ttl:    ttl,
	}
}

// Snapshot returns the cached snapshot when present, otherwise fetches and
// caches it.
func (c *CachedSource) Snapshot(ctx context.Context, marketContract common.Address) (*Snapshot, error) {
	key := fmt.Sprintf("market:%s", marketContract.Hex())

	if cached, ok := c.cache.Get(key); ok {
		if snap, ok := cached.(*Snapshot); ok {
			SnapshotCacheHitsTotal.Inc()
			return snap, nil
		}
	}
	SnapshotCacheMissesTotal.Inc()

	snap, err := c.source.Snapshot(ctx, marketContract)
	if err != nil {
		return nil, fmt.Errorf("fetch market snapshot: %w", err)
	}

	c.cache.Set(key, snap, c.ttl)
	return snap, nil
}
