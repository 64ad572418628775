// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	historyDomain "github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
)

// QuoteAggregator collects one round of quotes for a pair.
type QuoteAggregator interface {
	Aggregate(ctx context.Context, pair pricingDomain.Pair) *pricingDomain.PairQuoteSet
}

// PairSource lists the pairs to scan.
type PairSource interface {
	Pairs(ctx context.Context) ([]pricingDomain.Pair, error)
}

// ReferenceResolver yields the anchor's USD price. It never fails.
type ReferenceResolver interface {
	Resolve(ctx context.Context) pricingDomain.ReferencePrice
}

// History records evaluated rounds and summarises the day so far.
type History interface {
	Append(ctx context.Context, entry historyDomain.Entry) error
	Trend(ctx context.Context, symbol string) (historyDomain.TrendStats, error)
}

// Archiver ships closed history partitions.
type Archiver interface {
	ArchiveClosed(ctx context.Context) (int, error)
}

// Reporter defines the interface for presenting run reports.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report presents one finished run.
	Report(ctx context.Context, r *Report) error

	// Stop gracefully shuts down the reporter.
	Stop() error
}
