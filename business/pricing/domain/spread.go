package domain

import "math"

// SpreadPct is (max-min)/min*100 over the positive, finite prices given.
// ok is false when fewer than two such prices exist.
func SpreadPct(prices []float64) (pct float64, ok bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, p := range prices {
		if p <= 0 || math.IsInf(p, 0) || math.IsNaN(p) {
			continue
		}
		n++
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if n < 2 {
		return 0, false
	}
	return (hi - lo) / lo * 100, true
}
