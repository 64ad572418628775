package domain

import (
	"fmt"
	"math"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// MinTrendPoints is the smallest partition a trend is computed on.
const MinTrendPoints = 10

// TrendStats summarises the day's cross-venue spreads for one token.
type TrendStats struct {
	Token         string  `json:"token"`
	DataPoints    int     `json:"data_points"`
	MeanSpreadPct float64 `json:"mean_spread_pct"`
	MaxSpreadPct  float64 `json:"max_spread_pct"`
	MinSpreadPct  float64 `json:"min_spread_pct"`
	Volatility    float64 `json:"volatility"` // population stddev of spreads
	CurrentVsMean float64 `json:"current_vs_mean"`
}

// ComputeTrend needs at least minPoints entries, otherwise it returns
// CodeTrendUnavailable. Entries with fewer than two prices are skipped.
func ComputeTrend(symbol string, entries []Entry, minPoints int) (TrendStats, error) {
	if minPoints < 1 {
		minPoints = MinTrendPoints
	}
	if len(entries) < minPoints {
		return TrendStats{}, unavailable(symbol, fmt.Sprintf("%d of %d entries", len(entries), minPoints))
	}

	spreads := make([]float64, 0, len(entries))
	for _, e := range entries {
		if s, ok := e.Spread(); ok {
			spreads = append(spreads, s)
		}
	}
	if len(spreads) == 0 {
		return TrendStats{}, unavailable(symbol, "no entry has two prices")
	}

	sum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
	for _, s := range spreads {
		sum += s
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	mean := sum / float64(len(spreads))

	variance := 0.0
	for _, s := range spreads {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(spreads))

	// A flat day has nothing to compare against.
	currentVsMean := 1.0
	if mean != 0 {
		currentVsMean = spreads[len(spreads)-1] / mean
	}

	return TrendStats{
		Token:         symbol,
		DataPoints:    len(entries),
		MeanSpreadPct: mean,
		MaxSpreadPct:  hi,
		MinSpreadPct:  lo,
		Volatility:    math.Sqrt(variance),
		CurrentVsMean: currentVsMean,
	}, nil
}

func unavailable(symbol, why string) error {
	return apperror.New(apperror.CodeTrendUnavailable,
		apperror.WithContext(symbol+": "+why))
}
