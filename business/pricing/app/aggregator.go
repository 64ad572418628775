package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
	"github.com/fd1az/dex-arbitrage-scanner/internal/retry"
)

// AggregatorConfig bounds one collection round.
type AggregatorConfig struct {
	// RoundTimeout is shared by every venue call of a round, retries included.
	RoundTimeout time.Duration
	Retry        retry.Policy
}

// Aggregator fans a pair out to every venue and collects what comes back in time.
type Aggregator struct {
	venues []VenueClient
	cfg    AggregatorConfig
	log    logger.LoggerInterface
}

// NewAggregator creates an Aggregator over venues.
func NewAggregator(venues []VenueClient, cfg AggregatorConfig, log logger.LoggerInterface) *Aggregator {
	if cfg.RoundTimeout <= 0 {
		cfg.RoundTimeout = 10 * time.Second
	}
	return &Aggregator{venues: venues, cfg: cfg, log: log}
}

// Venues lists the configured venue ids.
func (a *Aggregator) Venues() []domain.VenueID {
	out := make([]domain.VenueID, len(a.venues))
	for i, v := range a.venues {
		out[i] = v.Venue()
	}
	return out
}

type venueResult struct {
	venue domain.VenueID
	quote domain.Quote
	err   error
}

// Aggregate queries all venues concurrently under one round deadline. When the
// deadline passes it returns what has arrived; calls still in flight are
// cancelled and their results dropped. Failed venues are simply absent.
func (a *Aggregator) Aggregate(ctx context.Context, pair domain.Pair) *domain.PairQuoteSet {
	set := domain.NewPairQuoteSet(pair)
	if len(a.venues) == 0 {
		return set
	}

	roundCtx, cancel := context.WithTimeout(ctx, a.cfg.RoundTimeout)
	defer cancel()

	// Buffered so abandoned calls never block on send.
	results := make(chan venueResult, len(a.venues))
	for _, v := range a.venues {
		go a.fetch(roundCtx, v, pair, results)
	}

	for pending := len(a.venues); pending > 0; pending-- {
		select {
		case r := <-results:
			a.collect(ctx, set, pair, r)
		case <-roundCtx.Done():
			a.log.Warn(ctx, "round deadline reached",
				"pair", pair.String(),
				"received", len(a.venues)-pending,
				"venues", len(a.venues),
			)
			return set
		}
	}
	return set
}

func (a *Aggregator) fetch(ctx context.Context, v VenueClient, pair domain.Pair, out chan<- venueResult) {
	res := venueResult{venue: v.Venue()}
	defer func() {
		if r := recover(); r != nil {
			res.quote = domain.Quote{}
			res.err = apperror.New(apperror.CodeVenueUnavailable,
				apperror.WithContext(fmt.Sprintf("%s: panic: %v", res.venue, r)))
		}
		out <- res
	}()

	res.quote, res.err = retry.Do(ctx, a.cfg.Retry, func(ctx context.Context) (domain.Quote, error) {
		return v.Fetch(ctx, pair)
	})
}

func (a *Aggregator) collect(ctx context.Context, set *domain.PairQuoteSet, pair domain.Pair, r venueResult) {
	if r.err != nil {
		a.log.Debug(ctx, "venue absent",
			"pair", pair.String(),
			"venue", string(r.venue),
			"code", string(apperror.GetCode(r.err)),
			"error", r.err.Error(),
		)
		return
	}

	r.quote.Venue = r.venue
	if !set.Add(r.quote) {
		a.log.Debug(ctx, "quote rejected",
			"pair", pair.String(),
			"venue", string(r.venue),
			"price", r.quote.Price,
		)
	}
}
