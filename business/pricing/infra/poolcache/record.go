// Package poolcache stores the pool listing in memory or in Redis.
package poolcache

import (
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

// poolRecord is the serialized form of domain.Pool.
type poolRecord struct {
	AmmID         string  `json:"ammId"`
	BaseMint      string  `json:"baseMint"`
	BaseSymbol    string  `json:"baseSymbol"`
	BaseDecimals  uint8   `json:"baseDecimals"`
	QuoteMint     string  `json:"quoteMint"`
	QuoteSymbol   string  `json:"quoteSymbol"`
	QuoteDecimals uint8   `json:"quoteDecimals"`
	BaseReserve   float64 `json:"baseReserve"`
	QuoteReserve  float64 `json:"quoteReserve"`
	BaseVolume    float64 `json:"baseVolume"`
	QuoteVolume   float64 `json:"quoteVolume"`
	LiquidityUSD  float64 `json:"liquidity"`
	Volume24hUSD  float64 `json:"volume24h"`
}

func toRecords(pools []domain.Pool) []poolRecord {
	out := make([]poolRecord, len(pools))
	for i, p := range pools {
		out[i] = poolRecord{
			AmmID:         p.AmmID,
			BaseMint:      p.Base.Address().String(),
			BaseSymbol:    p.Base.Symbol(),
			BaseDecimals:  p.Base.Decimals(),
			QuoteMint:     p.Quote.Address().String(),
			QuoteSymbol:   p.Quote.Symbol(),
			QuoteDecimals: p.Quote.Decimals(),
			BaseReserve:   p.BaseReserve,
			QuoteReserve:  p.QuoteReserve,
			BaseVolume:    p.BaseVolume,
			QuoteVolume:   p.QuoteVolume,
			LiquidityUSD:  p.LiquidityUSD,
			Volume24hUSD:  p.Volume24hUSD,
		}
	}
	return out
}

// fromRecords skips records whose mints no longer parse.
func fromRecords(recs []poolRecord) []domain.Pool {
	out := make([]domain.Pool, 0, len(recs))
	for _, r := range recs {
		base, err := asset.NewToken(r.BaseMint, r.BaseSymbol, r.BaseDecimals)
		if err != nil {
			continue
		}
		quote, err := asset.NewToken(r.QuoteMint, r.QuoteSymbol, r.QuoteDecimals)
		if err != nil {
			continue
		}
		out = append(out, domain.Pool{
			AmmID:        r.AmmID,
			Base:         base,
			Quote:        quote,
			BaseReserve:  r.BaseReserve,
			QuoteReserve: r.QuoteReserve,
			BaseVolume:   r.BaseVolume,
			QuoteVolume:  r.QuoteVolume,
			LiquidityUSD: r.LiquidityUSD,
			Volume24hUSD: r.Volume24hUSD,
		})
	}
	return out
}
