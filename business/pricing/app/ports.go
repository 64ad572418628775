// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
)

// VenueClient fetches one price observation from one venue. Every failure is
// returned as an *apperror.AppError; transient codes may be retried by the caller.
// Implementations never retry on their own and never panic.
type VenueClient interface {
	Venue() domain.VenueID
	Fetch(ctx context.Context, pair domain.Pair) (domain.Quote, error)
}

// PoolSource lists AMM pools. Implementations may serve cached data.
type PoolSource interface {
	Pools(ctx context.Context) ([]domain.Pool, error)
}

// ReferenceSource yields the anchor asset's USD price.
type ReferenceSource interface {
	Name() string
	USDPrice(ctx context.Context) (float64, error)
}

// PoolCache keeps the last pool listing. Load returns CodeCacheMiss when nothing
// is stored; a stored but expired listing comes back with fresh=false.
type PoolCache interface {
	Load(ctx context.Context) (pools []domain.Pool, storedAt time.Time, fresh bool, err error)
	Store(ctx context.Context, pools []domain.Pool) error
}
