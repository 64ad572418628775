package infra

import (
	"context"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// LogReporter emits one log line per run and one per opportunity. Used by
// watch mode without the TUI.
type LogReporter struct {
	log logger.LoggerInterface
}

func NewLogReporter(log logger.LoggerInterface) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Start(ctx context.Context) error {
	r.log.Info(ctx, "watch mode started")
	return nil
}

func (r *LogReporter) Report(ctx context.Context, rep *app.Report) error {
	r.log.Info(ctx, "run report",
		"run_id", rep.RunID,
		"pairs", rep.Pairs,
		"evaluated", rep.Evaluated,
		"insufficient", rep.Insufficient,
		"profitable", rep.Profitable,
		"reference_usd", rep.Reference.USD,
		"reference_source", rep.Reference.Source,
	)
	for rank, opp := range rep.Opportunities {
		r.log.Info(ctx, "ranked opportunity",
			"rank", rank+1,
			"pair", opp.PairName,
			"buy", string(opp.BuyVenue),
			"sell", string(opp.SellVenue),
			"diff_pct", opp.DiffPct.StringFixed(4),
			"fees_pct", opp.FeesPct.StringFixed(4),
			"adj_profit_pct", opp.AdjProfitPct.StringFixed(4),
			"diff_usd", opp.DiffUSD.StringFixed(2),
			"profitable", opp.Profitable,
		)
	}
	return nil
}

func (r *LogReporter) Stop() error {
	return nil
}
