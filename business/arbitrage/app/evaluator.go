package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

var hundred = decimal.NewFromInt(100)

// EvaluatorConfig holds the fee schedule, threshold and venue tie-break order.
type EvaluatorConfig struct {
	Fees         domain.FeeTable
	MinProfitPct decimal.Decimal
	Order        pricingDomain.VenueOrder
}

// Evaluator turns one round's quotes into a fee-adjusted opportunity.
// It is stateless and safe for concurrent use.
type Evaluator struct {
	fees         domain.FeeTable
	minProfitPct decimal.Decimal
	order        pricingDomain.VenueOrder
	now          func() time.Time
}

// NewEvaluator rejects a negative threshold.
func NewEvaluator(cfg EvaluatorConfig) (*Evaluator, error) {
	if cfg.MinProfitPct.IsNegative() {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("min profit must not be negative: %s", cfg.MinProfitPct)))
	}
	return &Evaluator{
		fees:         cfg.Fees,
		minProfitPct: cfg.MinProfitPct,
		order:        cfg.Order,
		now:          time.Now,
	}, nil
}

// Evaluate picks the cheapest venue to buy on and the dearest other venue to
// sell on. Equal prices go to the venue that ranks first in the order. Fewer
// than two quotes is CodeInsufficientCoverage.
func (e *Evaluator) Evaluate(set *pricingDomain.PairQuoteSet, ref pricingDomain.ReferencePrice) (*domain.Opportunity, error) {
	if set == nil || set.Len() < 2 {
		n := 0
		if set != nil {
			n = set.Len()
		}
		return nil, apperror.New(apperror.CodeInsufficientCoverage,
			apperror.WithContext(fmt.Sprintf("%d venue(s) quoted", n)))
	}

	venues := set.Venues()
	e.order.Sort(venues)

	buy, _ := set.Get(venues[0])
	for _, v := range venues[1:] {
		if q, _ := set.Get(v); q.Price < buy.Price {
			buy = q
		}
	}

	var sell pricingDomain.Quote
	for _, v := range venues {
		if v == buy.Venue {
			continue
		}
		if q, _ := set.Get(v); sell.Venue == "" || q.Price > sell.Price {
			sell = q
		}
	}

	buyPrice := decimal.NewFromFloat(buy.Price)
	sellPrice := decimal.NewFromFloat(sell.Price)

	diff := sellPrice.Sub(buyPrice).Div(buyPrice).Mul(hundred)
	fees := e.fees.RoundTrip(buy.Venue, sell.Venue)
	adj := diff.Sub(fees)

	diffUSD := decimal.Zero
	if ref.Usable() {
		diffUSD = diff.Div(hundred).Mul(decimal.NewFromFloat(ref.USD))
	}

	pair := set.Pair()
	opp := &domain.Opportunity{
		ID:           uuid.NewString(),
		Timestamp:    e.now(),
		Pair:         pair,
		PairName:     pair.String(),
		BuyVenue:     buy.Venue,
		BuyPrice:     buy.Price,
		SellVenue:    sell.Venue,
		SellPrice:    sell.Price,
		DiffPct:      diff,
		DiffUSD:      diffUSD,
		FeesPct:      fees,
		AdjProfitPct: adj,
		Profitable:   adj.GreaterThanOrEqual(e.minProfitPct),
		Prices:       set.Prices(),
	}
	opp.Advisory = domain.Advise(opp)
	return opp, nil
}
