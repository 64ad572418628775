// Package raydium reads the Raydium pair listing and prices pairs from pool reserves.
package raydium

import (
	"context"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/httpclient"
	"github.com/fd1az/dex-arbitrage-scanner/internal/ratelimit"
)

// DefaultPairsURL is the public pair listing.
const DefaultPairsURL = "https://api.raydium.io/v2/main/pairs"

// The listing is hundreds of megabytes; it gets its own timeout.
const listingTimeout = 3 * time.Minute

// pairRecord is one element of the listing array.
type pairRecord struct {
	AmmID         string  `json:"ammId"`
	BaseMint      string  `json:"baseMint"`
	QuoteMint     string  `json:"quoteMint"`
	BaseSymbol    string  `json:"baseSymbol"`
	QuoteSymbol   string  `json:"quoteSymbol"`
	BaseDecimals  uint8   `json:"baseDecimals"`
	QuoteDecimals uint8   `json:"quoteDecimals"`
	BaseReserve   float64 `json:"baseReserve"`
	QuoteReserve  float64 `json:"quoteReserve"`
	BaseVolume    float64 `json:"baseVolume"`
	QuoteVolume   float64 `json:"quoteVolume"`
	Liquidity     float64 `json:"liquidity"`
	Volume24h     float64 `json:"volume24h"`
}

var _ app.PoolSource = (*Listing)(nil)

// Listing downloads the pair listing on every call. Wrap it in app.PoolListing for caching.
type Listing struct {
	http     httpclient.Client
	limiter  *ratelimit.Limiter
	url      string
	registry *asset.Registry
}

// NewListing creates a listing source. Tokens already in registry keep their
// registered metadata.
func NewListing(http httpclient.Client, limiter *ratelimit.Limiter, url string, registry *asset.Registry) *Listing {
	if url == "" {
		url = DefaultPairsURL
	}
	return &Listing{http: http, limiter: limiter, url: url, registry: registry}
}

// Pools downloads and converts the listing. Records with unparseable mints are skipped.
func (l *Listing) Pools(ctx context.Context) ([]domain.Pool, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, listingTimeout)
	defer cancel()

	var records []pairRecord
	_, err := l.http.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler("raydium.pairs")),
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "pairs")),
	).
		SetResult(&records).
		Get(ctx, l.url)
	if err != nil {
		return nil, err
	}

	pools := make([]domain.Pool, 0, len(records))
	for _, r := range records {
		base, ok := l.token(r.BaseMint, r.BaseSymbol, r.BaseDecimals)
		if !ok {
			continue
		}
		quote, ok := l.token(r.QuoteMint, r.QuoteSymbol, r.QuoteDecimals)
		if !ok {
			continue
		}
		pools = append(pools, domain.Pool{
			AmmID:        r.AmmID,
			Base:         base,
			Quote:        quote,
			BaseReserve:  r.BaseReserve,
			QuoteReserve: r.QuoteReserve,
			BaseVolume:   r.BaseVolume,
			QuoteVolume:  r.QuoteVolume,
			LiquidityUSD: r.Liquidity,
			Volume24hUSD: r.Volume24h,
		})
	}
	return pools, nil
}

func (l *Listing) token(mint, symbol string, decimals uint8) (asset.Token, bool) {
	addr, err := asset.ParseAddress(mint)
	if err != nil {
		return asset.Token{}, false
	}
	if l.registry != nil {
		if t, ok := l.registry.Get(addr); ok {
			return t, true
		}
	}
	if symbol == "" {
		symbol = "UNKNOWN"
	}
	t, err := asset.NewToken(mint, symbol, decimals)
	if err != nil {
		return asset.Token{}, false
	}
	return t, true
}
