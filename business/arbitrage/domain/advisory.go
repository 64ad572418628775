package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	highImpactDiffPct = decimal.NewFromInt(5)
	thinEdgeDiffPct   = decimal.NewFromInt(1)
	slippageFactor    = decimal.RequireFromString("0.3")
	maxSlippagePct    = decimal.NewFromInt(1)
)

// Advisory is execution guidance for a profitable opportunity.
type Advisory struct {
	SuggestedSlippagePct decimal.Decimal `json:"suggested_slippage_pct"`
	Warnings             []RiskFactor    `json:"warnings,omitempty"`
	Steps                []ExecutionStep `json:"steps"`
}

// Advise builds the advisory for o. It returns nil for unprofitable opportunities.
//
// Wide spreads usually mean thin liquidity on one side, so fills will move the
// price; narrow ones leave little room for slippage.
func Advise(o *Opportunity) *Advisory {
	if !o.IsProfitable() {
		return nil
	}

	a := &Advisory{
		SuggestedSlippagePct: decimal.Min(o.DiffPct.Mul(slippageFactor), maxSlippagePct),
		Steps: []ExecutionStep{
			{
				Number:      1,
				Side:        SideBuy,
				Description: fmt.Sprintf("%s %s on %s at %s", SideBuy, o.Pair.Base.Symbol(), o.BuyVenue, formatPrice(o.BuyPrice)),
			},
			{
				Number:      2,
				Side:        SideSell,
				Description: fmt.Sprintf("%s %s on %s at %s", SideSell, o.Pair.Base.Symbol(), o.SellVenue, formatPrice(o.SellPrice)),
			},
		},
	}

	if o.DiffPct.GreaterThan(highImpactDiffPct) {
		a.Warnings = append(a.Warnings, RiskFactor{
			Name:        "price_impact",
			Description: fmt.Sprintf("spread of %s%% suggests thin liquidity; expect high price impact", o.DiffPct.StringFixed(2)),
			Severity:    "high",
		})
	}
	if o.DiffPct.LessThan(thinEdgeDiffPct) {
		a.Warnings = append(a.Warnings, RiskFactor{
			Name:        "thin_edge",
			Description: fmt.Sprintf("spread of %s%% leaves little margin for slippage", o.DiffPct.StringFixed(2)),
			Severity:    "medium",
		})
	}

	return a
}

func formatPrice(p float64) string {
	return decimal.NewFromFloat(p).Round(8).String()
}
