package raydium

import (
	"context"
	"fmt"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/venue"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// PoolStrategy prices a pair from the deepest Raydium pool serving it.
func PoolStrategy(pools app.PoolSource) venue.Strategy {
	return venue.NewStrategy("pool", func(ctx context.Context, pair domain.Pair) (float64, error) {
		listing, err := pools.Pools(ctx)
		if err != nil {
			// A listing outage means no pool price, not a retryable venue failure.
			return 0, apperror.New(apperror.CodeQuoteAbsent,
				apperror.WithContext("raydium.pool: listing unavailable"),
				apperror.WithCause(err))
		}

		pool, ok := domain.DeepestFor(listing, pair)
		if !ok {
			return 0, apperror.New(apperror.CodeQuoteAbsent,
				apperror.WithContext(fmt.Sprintf("raydium.pool: no pool for %s", pair)))
		}

		price, ok := pool.PriceFor(pair)
		if !ok {
			return 0, apperror.New(apperror.CodeQuoteAbsent,
				apperror.WithContext(fmt.Sprintf("raydium.pool: %s has no reserves or volume", pool.AmmID)))
		}
		return price, nil
	})
}
