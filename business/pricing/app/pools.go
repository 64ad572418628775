package app

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// PoolListing serves the pool listing from cache, downloading at most once at a
// time when the cache is cold. A failed download falls back to a stale copy.
type PoolListing struct {
	source PoolSource
	cache  PoolCache
	log    logger.LoggerInterface
	group  singleflight.Group
}

var _ PoolSource = (*PoolListing)(nil)

// NewPoolListing wraps source with cache.
func NewPoolListing(source PoolSource, cache PoolCache, log logger.LoggerInterface) *PoolListing {
	return &PoolListing{source: source, cache: cache, log: log}
}

// Pools returns cached pools when fresh, otherwise downloads them.
func (l *PoolListing) Pools(ctx context.Context) ([]domain.Pool, error) {
	pools, _, fresh, err := l.cache.Load(ctx)
	if err == nil && fresh {
		return pools, nil
	}

	v, err, _ := l.group.Do("pools", func() (any, error) {
		return l.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Pool), nil
}

func (l *PoolListing) refresh(ctx context.Context) ([]domain.Pool, error) {
	start := time.Now()
	pools, err := l.source.Pools(ctx)
	if err == nil {
		if storeErr := l.cache.Store(ctx, pools); storeErr != nil {
			l.log.Warn(ctx, "pool cache store failed", "error", storeErr.Error())
		}
		l.log.Info(ctx, "pool listing refreshed",
			"pools", len(pools),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return pools, nil
	}

	stale, storedAt, _, cacheErr := l.cache.Load(ctx)
	if cacheErr == nil {
		l.log.Warn(ctx, "pool listing download failed, serving stale copy",
			"error", err.Error(),
			"age_s", int(time.Since(storedAt).Seconds()),
		)
		return stale, nil
	}

	return nil, apperror.New(apperror.CodePoolListingFailed, apperror.WithCause(err))
}
