package arbitrage

import (
	"testing"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/config"
)

func scanConfig() *config.ScanConfig {
	return &config.ScanConfig{
		MinProfitPct:  0.2,
		NetworkFeePct: 0.02,
		DefaultFeePct: 0.25,
		Fees: map[string]float64{
			"jupiter": 0.25,
			"raydium": 0.25,
			"orca":    0.25,
			"meteora": 0.2,
		},
		Venues: []string{"jupiter", "raydium", "orca", "meteora"},
	}
}

func TestNewEvaluator_FromConfig(t *testing.T) {
	e, err := NewEvaluator(scanConfig())
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	pair := pricingDomain.Pair{Base: asset.SOL, Quote: asset.USDC}
	set := pricingDomain.NewPairQuoteSet(pair)
	set.Add(pricingDomain.Quote{Venue: pricingDomain.VenueJupiter, Base: asset.SOL, Quote: asset.USDC, Price: 100})
	set.Add(pricingDomain.Quote{Venue: pricingDomain.VenueMeteora, Base: asset.SOL, Quote: asset.USDC, Price: 101})

	opp, err := e.Evaluate(set, pricingDomain.ReferencePrice{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// 0.25 + 0.2 + 0.02
	if !opp.FeesPct.Equal(decimal.RequireFromString("0.47")) {
		t.Errorf("fees = %s, want 0.47", opp.FeesPct)
	}
	if !opp.AdjProfitPct.Equal(decimal.RequireFromString("0.53")) {
		t.Errorf("adj = %s, want 0.53", opp.AdjProfitPct)
	}
	if !opp.Profitable {
		t.Error("expected profitable")
	}
}

func TestNewEvaluator_ConfiguredOrderBreaksTies(t *testing.T) {
	cfg := scanConfig()
	cfg.Venues = []string{"orca", "jupiter"}

	e, err := NewEvaluator(cfg)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	pair := pricingDomain.Pair{Base: asset.SOL, Quote: asset.USDC}
	set := pricingDomain.NewPairQuoteSet(pair)
	set.Add(pricingDomain.Quote{Venue: pricingDomain.VenueJupiter, Base: asset.SOL, Quote: asset.USDC, Price: 100})
	set.Add(pricingDomain.Quote{Venue: pricingDomain.VenueOrca, Base: asset.SOL, Quote: asset.USDC, Price: 100})

	opp, err := e.Evaluate(set, pricingDomain.ReferencePrice{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if opp.BuyVenue != pricingDomain.VenueOrca || opp.SellVenue != pricingDomain.VenueJupiter {
		t.Errorf("buy %s sell %s, want orca then jupiter", opp.BuyVenue, opp.SellVenue)
	}
}

func TestNewEvaluator_RejectsNegativeFee(t *testing.T) {
	cfg := scanConfig()
	cfg.Fees["orca"] = -0.1

	_, err := NewEvaluator(cfg)
	if apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeConfigurationError)
	}
}
