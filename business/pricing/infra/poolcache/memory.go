package poolcache

import (
	"context"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/cache"
)

const listingKey = "raydium:pools"

var _ app.PoolCache = (*Memory)(nil)

// Memory keeps the listing in process. Expired listings stay readable as stale
// for staleRetention.
type Memory struct {
	c   *cache.Cache[string, []domain.Pool]
	ttl time.Duration
}

// NewMemory creates an in-process pool cache.
func NewMemory(ttl, staleRetention time.Duration, opts ...cache.Option) *Memory {
	opts = append([]cache.Option{cache.WithStaleRetention(staleRetention)}, opts...)
	return &Memory{
		c:   cache.New[string, []domain.Pool](time.Minute, opts...),
		ttl: ttl,
	}
}

func (m *Memory) Load(ctx context.Context) ([]domain.Pool, time.Time, bool, error) {
	pools, storedAt, fresh, ok := m.c.Peek(ctx, listingKey)
	if !ok {
		return nil, time.Time{}, false, apperror.New(apperror.CodeCacheMiss, apperror.WithContext(listingKey))
	}
	return pools, storedAt, fresh, nil
}

func (m *Memory) Store(ctx context.Context, pools []domain.Pool) error {
	m.c.Set(ctx, listingKey, pools, m.ttl)
	return nil
}

// Close stops the janitor.
func (m *Memory) Close() error {
	m.c.Close()
	return nil
}
