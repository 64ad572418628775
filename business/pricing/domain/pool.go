package domain

import (
	"sort"

	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

// Pool is one AMM pool from the Raydium pair listing.
type Pool struct {
	AmmID        string
	Base         asset.Token
	Quote        asset.Token
	BaseReserve  float64
	QuoteReserve float64
	BaseVolume   float64
	QuoteVolume  float64
	LiquidityUSD float64
	Volume24hUSD float64
}

// Has reports whether the pool trades t on either side.
func (p Pool) Has(t asset.Token) bool {
	return p.Base.Equals(t) || p.Quote.Equals(t)
}

// Serves reports whether the pool trades exactly the two tokens of pair, in any orientation.
func (p Pool) Serves(pair Pair) bool {
	return (p.Base.Equals(pair.Base) && p.Quote.Equals(pair.Quote)) ||
		(p.Base.Equals(pair.Quote) && p.Quote.Equals(pair.Base))
}

// PriceFor returns pair.Quote per pair.Base. Reserves are preferred; volumes are
// the fallback when either reserve is missing. ok is false when neither side has data.
func (p Pool) PriceFor(pair Pair) (price float64, ok bool) {
	if !p.Serves(pair) {
		return 0, false
	}

	base, quote := p.BaseReserve, p.QuoteReserve
	if base <= 0 || quote <= 0 {
		base, quote = p.BaseVolume, p.QuoteVolume
	}
	if base <= 0 || quote <= 0 {
		return 0, false
	}

	if p.Base.Equals(pair.Base) {
		return quote / base, true
	}
	return base / quote, true
}

// Oriented returns the pair with anchor as base, or false when the pool does not hold anchor.
func (p Pool) Oriented(anchor asset.Token) (Pair, bool) {
	switch {
	case p.Base.Equals(anchor):
		return Pair{Base: p.Base, Quote: p.Quote}, true
	case p.Quote.Equals(anchor):
		return Pair{Base: p.Quote, Quote: p.Base}, true
	default:
		return Pair{}, false
	}
}

// DeepestFor picks the pool with the most liquidity serving pair.
func DeepestFor(pools []Pool, pair Pair) (Pool, bool) {
	var (
		best  Pool
		found bool
	)
	for _, p := range pools {
		if !p.Serves(pair) {
			continue
		}
		if !found || p.LiquidityUSD > best.LiquidityUSD {
			best, found = p, true
		}
	}
	return best, found
}

// TopPairs orients every pool holding anchor as anchor/X, drops pools below
// minLiquidity, and returns at most limit distinct pairs by descending liquidity.
func TopPairs(pools []Pool, anchor asset.Token, minLiquidity float64, limit int) []Pair {
	candidates := make([]Pool, 0, len(pools))
	for _, p := range pools {
		if p.LiquidityUSD < minLiquidity || !p.Has(anchor) || p.Base.Equals(p.Quote) {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].LiquidityUSD > candidates[j].LiquidityUSD
	})

	seen := make(map[asset.Address]bool)
	out := make([]Pair, 0, limit)
	for _, p := range candidates {
		if limit > 0 && len(out) >= limit {
			break
		}
		pair, _ := p.Oriented(anchor)
		if seen[pair.Quote.Address()] {
			continue
		}
		seen[pair.Quote.Address()] = true
		out = append(out, pair)
	}
	return out
}
