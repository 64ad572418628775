package app

import (
	"context"
	"math"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// ReferenceChain asks each source in order and settles on a constant when all fail.
type ReferenceChain struct {
	sources  []ReferenceSource
	fallback float64
	timeout  time.Duration
	log      logger.LoggerInterface
	now      func() time.Time
}

// NewReferenceChain creates a chain. timeout bounds each source call.
func NewReferenceChain(sources []ReferenceSource, fallbackUSD float64, timeout time.Duration, log logger.LoggerInterface) *ReferenceChain {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ReferenceChain{
		sources:  sources,
		fallback: fallbackUSD,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
	}
}

// Resolve never fails: the fallback constant is the last answer.
func (c *ReferenceChain) Resolve(ctx context.Context) domain.ReferencePrice {
	for _, s := range c.sources {
		usd, err := c.ask(ctx, s)
		if err != nil {
			c.log.Debug(ctx, "reference source failed", "source", s.Name(), "error", err.Error())
			continue
		}
		if usd <= 0 || math.IsNaN(usd) || math.IsInf(usd, 0) {
			c.log.Debug(ctx, "reference source returned unusable price", "source", s.Name(), "usd", usd)
			continue
		}
		return domain.ReferencePrice{USD: usd, Source: s.Name(), At: c.now()}
	}

	c.log.Warn(ctx, "all reference sources failed, using fallback", "usd", c.fallback)
	return domain.ReferencePrice{USD: c.fallback, Source: domain.ReferenceSourceFallback, At: c.now()}
}

func (c *ReferenceChain) ask(ctx context.Context, s ReferenceSource) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return s.USDPrice(ctx)
}
