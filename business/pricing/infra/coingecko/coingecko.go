// Package coingecko reads the anchor's USD price from the CoinGecko simple price API.
package coingecko

import (
	"context"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/httpclient"
	"github.com/fd1az/dex-arbitrage-scanner/internal/ratelimit"
)

const (
	DefaultURL = "https://api.coingecko.com/api/v3/simple/price"
	DefaultID  = "solana"
)

var _ app.ReferenceSource = (*Source)(nil)

// Source is an app.ReferenceSource.
type Source struct {
	http    httpclient.Client
	limiter *ratelimit.Limiter
	url     string
	id      string
}

// New creates a source for coin id (e.g. "solana"). limiter may be nil.
func New(http httpclient.Client, limiter *ratelimit.Limiter, url, id string) *Source {
	if url == "" {
		url = DefaultURL
	}
	if id == "" {
		id = DefaultID
	}
	return &Source{http: http, limiter: limiter, url: url, id: id}
}

func (s *Source) Name() string { return "coingecko" }

// USDPrice reads {id: {usd: price}}.
func (s *Source) USDPrice(ctx context.Context) (float64, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return 0, apperror.FromTransport(err, "coingecko: rate limiter")
		}
	}

	var resp map[string]map[string]float64
	_, err := s.http.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler("coingecko")),
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "simple_price")),
	).
		SetQueryParam("ids", s.id).
		SetQueryParam("vs_currencies", "usd").
		SetResult(&resp).
		Get(ctx, s.url)
	if err != nil {
		return 0, err
	}

	usd, ok := resp[s.id]["usd"]
	if !ok || usd <= 0 {
		return 0, apperror.New(apperror.CodeReferencePriceFailed,
			apperror.WithContext("coingecko: no usd price for "+s.id))
	}
	return usd, nil
}
