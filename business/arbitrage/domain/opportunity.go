package domain

import (
	"time"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
)

// ExecutionStep represents a step in the suggested execution plan.
type ExecutionStep struct {
	Number      int    `json:"number"`
	Side        Side   `json:"side"`
	Description string `json:"description"`
}

// RiskFactor represents a warning attached to an opportunity.
type RiskFactor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // "low", "medium", "high"
}

// Opportunity is the evaluation of one pair in one round. It is produced
// whenever at least two venues answered, profitable or not.
type Opportunity struct {
	ID           string                            `json:"id"`
	Timestamp    time.Time                         `json:"timestamp"`
	Pair         pricingDomain.Pair                `json:"-"`
	PairName     string                            `json:"pair"`
	BuyVenue     pricingDomain.VenueID             `json:"buy_venue"`
	BuyPrice     float64                           `json:"buy_price"`
	SellVenue    pricingDomain.VenueID             `json:"sell_venue"`
	SellPrice    float64                           `json:"sell_price"`
	DiffPct      decimal.Decimal                   `json:"diff_pct"`
	DiffUSD      decimal.Decimal                   `json:"diff_usd"`
	FeesPct      decimal.Decimal                   `json:"fees_pct"`
	AdjProfitPct decimal.Decimal                   `json:"adj_profit_pct"`
	Profitable   bool                              `json:"profitable"`
	Prices       map[pricingDomain.VenueID]float64 `json:"prices"`
	Advisory     *Advisory                         `json:"advisory,omitempty"`
}

// IsProfitable returns true if the fee-adjusted spread clears the threshold.
func (o *Opportunity) IsProfitable() bool {
	return o != nil && o.Profitable
}
