package domain

import (
	"math"
	"time"
)

// ReferenceSourceFallback names the configured constant used when every live source fails.
const ReferenceSourceFallback = "fallback"

// ReferencePrice is the USD price of the anchor asset (SOL) used to value spreads.
type ReferencePrice struct {
	USD    float64   `json:"usd"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// Usable reports whether the price is positive and finite.
func (r ReferencePrice) Usable() bool {
	return r.USD > 0 && !math.IsInf(r.USD, 0) && !math.IsNaN(r.USD)
}
