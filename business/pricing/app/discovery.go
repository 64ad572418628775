package app

import (
	"context"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// DiscoveryConfig selects which pairs a run scans.
type DiscoveryConfig struct {
	// Manual pairs ("SOL/BONK") win over discovery when set.
	Manual       []string
	Discover     bool
	Anchor       asset.Token
	MinLiquidity float64
	MaxPairs     int
}

// PairDiscovery resolves the pair list for a run.
type PairDiscovery struct {
	pools    PoolSource
	registry *asset.Registry
	cfg      DiscoveryConfig
	log      logger.LoggerInterface
}

// NewPairDiscovery creates a PairDiscovery. pools may be nil when discovery is off.
func NewPairDiscovery(pools PoolSource, registry *asset.Registry, cfg DiscoveryConfig, log logger.LoggerInterface) *PairDiscovery {
	if cfg.Anchor.IsZero() {
		cfg.Anchor = asset.SOL
	}
	return &PairDiscovery{pools: pools, registry: registry, cfg: cfg, log: log}
}

// Pairs returns the manual list when configured, otherwise the most liquid
// anchor pairs from the pool listing. A failed listing falls back to every
// registered token paired with the anchor.
func (d *PairDiscovery) Pairs(ctx context.Context) ([]domain.Pair, error) {
	if len(d.cfg.Manual) > 0 {
		return d.manual()
	}

	if d.cfg.Discover && d.pools != nil {
		pairs, err := d.discover(ctx)
		if err == nil && len(pairs) > 0 {
			return pairs, nil
		}
		d.log.Warn(ctx, "pair discovery failed, using registered tokens", "error", errString(err))
	}

	return d.registered(), nil
}

func (d *PairDiscovery) manual() ([]domain.Pair, error) {
	out := make([]domain.Pair, 0, len(d.cfg.Manual))
	for _, s := range d.cfg.Manual {
		p, err := domain.ParsePair(s, d.registry)
		if err != nil {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("scan.pairs: "+s),
				apperror.WithCause(err))
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *PairDiscovery) discover(ctx context.Context) ([]domain.Pair, error) {
	pools, err := d.pools.Pools(ctx)
	if err != nil {
		return nil, err
	}

	pairs := domain.TopPairs(pools, d.cfg.Anchor, d.cfg.MinLiquidity, d.cfg.MaxPairs)
	for _, p := range pairs {
		d.registry.Register(p.Quote)
	}

	d.log.Info(ctx, "pairs discovered",
		"pools", len(pools),
		"pairs", len(pairs),
		"min_liquidity", d.cfg.MinLiquidity,
	)
	return pairs, nil
}

func (d *PairDiscovery) registered() []domain.Pair {
	var out []domain.Pair
	for _, t := range d.registry.All() {
		if t.Equals(d.cfg.Anchor) {
			continue
		}
		out = append(out, domain.Pair{Base: d.cfg.Anchor, Quote: t})
		if d.cfg.MaxPairs > 0 && len(out) >= d.cfg.MaxPairs {
			break
		}
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return "no pairs above liquidity floor"
	}
	return err.Error()
}
