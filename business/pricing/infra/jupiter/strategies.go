package jupiter

import (
	"context"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/venue"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

// PriceStrategy prices through the price API, optionally limited to one DEX.
func (c *Client) PriceStrategy(sources string) venue.Strategy {
	name := "price"
	if sources != "" {
		name = "price:" + sources
	}
	return venue.NewStrategy(name, func(ctx context.Context, pair domain.Pair) (float64, error) {
		return c.Price(ctx, pair.Base, pair.Quote, sources)
	})
}

// QuoteStrategy prices through a route quote.
func (c *Client) QuoteStrategy(name string, route Route) venue.Strategy {
	return venue.NewStrategy(name, func(ctx context.Context, pair domain.Pair) (float64, error) {
		return c.RouteQuote(ctx, pair, route)
	})
}

// Chains for the venues that Jupiter fronts.

// JupiterStrategies prices against the aggregate across all DEXes.
func (c *Client) JupiterStrategies() []venue.Strategy {
	return []venue.Strategy{
		c.PriceStrategy(""),
		c.QuoteStrategy("quote", Route{}),
	}
}

// OrcaStrategies isolates Orca liquidity.
func (c *Client) OrcaStrategies() []venue.Strategy {
	return []venue.Strategy{
		c.PriceStrategy("Orca"),
		c.QuoteStrategy("quote:direct", Route{OnlyDirect: true, ExcludeDexes: []string{"Raydium", "Meteora"}}),
	}
}

// MeteoraStrategies isolates Meteora liquidity.
func (c *Client) MeteoraStrategies() []venue.Strategy {
	return []venue.Strategy{
		c.PriceStrategy("Meteora"),
		c.QuoteStrategy("quote:direct", Route{OnlyDirect: true, ExcludeDexes: []string{"Raydium", "Orca"}}),
	}
}

// RaydiumQuoteStrategy is the fallback behind Raydium's pool reserves.
func (c *Client) RaydiumQuoteStrategy() venue.Strategy {
	return c.QuoteStrategy("quote:raydium", Route{Dexes: []string{"Raydium"}})
}

// ReferenceSource prices the anchor in USD through the price API.
type ReferenceSource struct {
	client *Client
	anchor asset.Token
	usd    asset.Token
}

// NewReferenceSource prices anchor against usd (USDC by default).
func NewReferenceSource(c *Client, anchor, usd asset.Token) *ReferenceSource {
	if usd.IsZero() {
		usd = asset.USDC
	}
	return &ReferenceSource{client: c, anchor: anchor, usd: usd}
}

func (s *ReferenceSource) Name() string { return "jupiter" }

func (s *ReferenceSource) USDPrice(ctx context.Context) (float64, error) {
	return s.client.Price(ctx, s.anchor, s.usd, "")
}
