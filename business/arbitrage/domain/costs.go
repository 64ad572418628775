// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// Default trading fees in percent per swap.
var (
	DefaultVenueFees = map[pricingDomain.VenueID]decimal.Decimal{
		pricingDomain.VenueJupiter: decimal.RequireFromString("0.25"),
		pricingDomain.VenueRaydium: decimal.RequireFromString("0.25"),
		pricingDomain.VenueOrca:    decimal.RequireFromString("0.25"),
		pricingDomain.VenueMeteora: decimal.RequireFromString("0.2"),
	}
	DefaultFeePct     = decimal.RequireFromString("0.25")
	DefaultNetworkFee = decimal.RequireFromString("0.02")
	DefaultMinProfit  = decimal.RequireFromString("0.2")
)

// FeeTable prices a buy/sell round trip. It is immutable once built.
type FeeTable struct {
	fees       map[pricingDomain.VenueID]decimal.Decimal
	defaultFee decimal.Decimal
	networkFee decimal.Decimal
}

// NewFeeTable validates and copies fees. Negative values are configuration errors.
func NewFeeTable(fees map[pricingDomain.VenueID]decimal.Decimal, defaultFee, networkFee decimal.Decimal) (FeeTable, error) {
	if defaultFee.IsNegative() {
		return FeeTable{}, negativeFee("default fee", defaultFee)
	}
	if networkFee.IsNegative() {
		return FeeTable{}, negativeFee("network fee", networkFee)
	}

	copied := make(map[pricingDomain.VenueID]decimal.Decimal, len(fees))
	for venue, fee := range fees {
		if fee.IsNegative() {
			return FeeTable{}, negativeFee("fee for "+string(venue), fee)
		}
		copied[venue] = fee
	}

	return FeeTable{fees: copied, defaultFee: defaultFee, networkFee: networkFee}, nil
}

// DefaultFeeTable returns the built-in fee schedule.
func DefaultFeeTable() FeeTable {
	t, _ := NewFeeTable(DefaultVenueFees, DefaultFeePct, DefaultNetworkFee)
	return t
}

// For returns the swap fee of venue, or the default fee for unlisted venues.
func (t FeeTable) For(venue pricingDomain.VenueID) decimal.Decimal {
	if fee, ok := t.fees[venue]; ok {
		return fee
	}
	return t.defaultFee
}

// NetworkFee returns the per-trade network fee in percent.
func (t FeeTable) NetworkFee() decimal.Decimal {
	return t.networkFee
}

// RoundTrip is fee[buy] + fee[sell] + network fee.
func (t FeeTable) RoundTrip(buy, sell pricingDomain.VenueID) decimal.Decimal {
	return t.For(buy).Add(t.For(sell)).Add(t.networkFee)
}

func negativeFee(what string, v decimal.Decimal) error {
	return apperror.New(apperror.CodeConfigurationError,
		apperror.WithContext(fmt.Sprintf("%s must not be negative: %s", what, v)))
}
