// Package arbitrage implements the arbitrage bounded context: spread
// evaluation, ranking and the run orchestrator.
package arbitrage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/di"
	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/domain"
	historyDI "github.com/fd1az/dex-arbitrage-scanner/business/history/di"
	pricingDI "github.com/fd1az/dex-arbitrage-scanner/business/pricing/di"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/config"
	"github.com/fd1az/dex-arbitrage-scanner/internal/di"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
	"github.com/fd1az/dex-arbitrage-scanner/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers the evaluator and the orchestrator.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.Evaluator, func(sr di.ServiceRegistry) *app.Evaluator {
		cfg := sr.Get("config").(*config.Config)

		e, err := NewEvaluator(&cfg.Scan)
		if err != nil {
			panic("failed to create evaluator: " + err.Error())
		}
		return e
	})

	// Orchestrator - pulls pairs, quotes and the reference from pricing and
	// records into history
	di.RegisterToken(c, arbitrageDI.Orchestrator, func(sr di.ServiceRegistry) *app.Orchestrator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		history := historyDI.GetService(sr)

		return app.NewOrchestrator(
			pricingDI.GetPairDiscovery(sr),
			pricingDI.GetAggregator(sr),
			pricingDI.GetReferenceChain(sr),
			arbitrageDI.GetEvaluator(sr),
			history,
			history,
			app.OrchestratorConfig{
				Concurrency: cfg.Scan.Concurrency,
				Interval:    cfg.Scan.Interval,
			},
			log,
		)
	})

	return nil
}

// Startup resolves the evaluator and checks a manual pair list, so bad
// configuration stops the process before the first run.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	_ = arbitrageDI.GetEvaluator(mono.Services())
	_ = arbitrageDI.GetOrchestrator(mono.Services())

	if len(cfg.Scan.Pairs) > 0 {
		pairs, err := pricingDI.GetPairDiscovery(mono.Services()).Pairs(ctx)
		if err != nil {
			return err
		}
		log.Info(ctx, "manual pair list", "pairs", len(pairs))
	}

	log.Info(ctx, "arbitrage module started",
		"min_profit_pct", cfg.Scan.MinProfitPct,
		"concurrency", cfg.Scan.Concurrency)
	return nil
}

// NewEvaluator builds the evaluator from the scan configuration.
func NewEvaluator(cfg *config.ScanConfig) (*app.Evaluator, error) {
	fees := make(map[pricingDomain.VenueID]decimal.Decimal, len(cfg.Fees))
	for name, fee := range cfg.FeesDecimal() {
		fees[pricingDomain.ParseVenueID(name)] = fee
	}

	table, err := domain.NewFeeTable(fees, cfg.DefaultFeePctDecimal(), cfg.NetworkFeePctDecimal())
	if err != nil {
		return nil, err
	}

	priority := make([]pricingDomain.VenueID, 0, len(cfg.Venues))
	for _, name := range cfg.Venues {
		priority = append(priority, pricingDomain.ParseVenueID(name))
	}
	// Venues absent from the configured list keep the default rank behind them.
	for _, v := range pricingDomain.DefaultVenuePriority {
		if !containsVenue(priority, v) {
			priority = append(priority, v)
		}
	}

	return app.NewEvaluator(app.EvaluatorConfig{
		Fees:         table,
		MinProfitPct: cfg.MinProfitPctDecimal(),
		Order:        pricingDomain.NewVenueOrder(priority),
	})
}

func containsVenue(ids []pricingDomain.VenueID, v pricingDomain.VenueID) bool {
	for _, id := range ids {
		if id == v {
			return true
		}
	}
	return false
}
