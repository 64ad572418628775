package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"

	historyDomain "github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apm"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

const instrumentationName = "arbitrage"

type orchestratorMetrics struct {
	runs          metric.Int64Counter
	pairs         metric.Int64Counter
	runDuration   metric.Float64Histogram
	bestAdjProfit metric.Float64Gauge
}

// OrchestratorConfig bounds a run.
type OrchestratorConfig struct {
	Concurrency int
	Interval    time.Duration // watch mode period
}

// Orchestrator runs pairs through aggregation, evaluation and history.
type Orchestrator struct {
	pairs      PairSource
	aggregator QuoteAggregator
	reference  ReferenceResolver
	evaluator  *Evaluator
	history    History
	archiver   Archiver
	cfg        OrchestratorConfig
	log        logger.LoggerInterface
	now        func() time.Time
	tracer     apm.Tracer
	metrics    orchestratorMetrics
}

// NewOrchestrator wires the run pipeline. archiver may be nil.
func NewOrchestrator(
	pairs PairSource,
	aggregator QuoteAggregator,
	reference ReferenceResolver,
	evaluator *Evaluator,
	history History,
	archiver Archiver,
	cfg OrchestratorConfig,
	log logger.LoggerInterface,
) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	o := &Orchestrator{
		pairs:      pairs,
		aggregator: aggregator,
		reference:  reference,
		evaluator:  evaluator,
		history:    history,
		archiver:   archiver,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		tracer:     apm.NewTracer(instrumentationName),
	}
	if err := o.initMetrics(otel.Meter(instrumentationName)); err != nil {
		log.Warn(context.Background(), "orchestrator metrics disabled", "error", err)
		_ = o.initMetrics(noop.Meter{})
	}
	return o
}

func (o *Orchestrator) initMetrics(meter metric.Meter) error {
	var err error

	o.metrics.runs, err = meter.Int64Counter(
		"scanner_runs_total",
		metric.WithDescription("Completed runs"),
	)
	if err != nil {
		return err
	}

	o.metrics.pairs, err = meter.Int64Counter(
		"scanner_pairs_total",
		metric.WithDescription("Pairs processed by outcome"),
	)
	if err != nil {
		return err
	}

	o.metrics.runDuration, err = meter.Float64Histogram(
		"scanner_run_duration_seconds",
		metric.WithDescription("Wall time of a run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.metrics.bestAdjProfit, err = meter.Float64Gauge(
		"scanner_best_adj_profit_pct",
		metric.WithDescription("Fee-adjusted profit of the top ranked pair"),
	)
	return err
}

// Scan resolves the pair list and runs it once. Closed history partitions are
// archived afterwards.
func (o *Orchestrator) Scan(ctx context.Context) (*Report, error) {
	pairs, err := o.pairs.Pairs(ctx)
	if err != nil {
		return nil, err
	}

	report := o.Run(ctx, pairs, o.cfg.Concurrency)
	o.archive(ctx)
	return report, nil
}

// Run evaluates every pair with at most concurrency pairs in flight. It always
// completes; pairs without two quotes are counted, not failed.
func (o *Orchestrator) Run(ctx context.Context, pairs []pricingDomain.Pair, concurrency int) *Report {
	if concurrency < 1 {
		concurrency = 1
	}

	ctx, span := o.tracer.StartSpan(ctx, "arbitrage.run", attribute.Int("pairs", len(pairs)))
	defer span.End()

	rc := NewRunContext(uuid.NewString(), o.now(), o.reference.Resolve(ctx), len(pairs))
	span.SetAttributes(attribute.String("run_id", rc.ID))
	o.log.Info(ctx, "run started",
		"run_id", rc.ID,
		"pairs", len(pairs),
		"reference_usd", rc.Reference.USD,
		"reference_source", rc.Reference.Source,
	)

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, pair := range pairs {
		g.Go(func() error {
			o.runPair(ctx, rc, pair)
			return nil
		})
	}
	g.Wait()

	report := rc.Report(o.now())
	o.record(ctx, report)
	span.SetAttributes(
		attribute.Int("evaluated", report.Evaluated),
		attribute.Int("profitable", report.Profitable),
	)
	o.log.Info(ctx, "run finished",
		"run_id", report.RunID,
		"evaluated", report.Evaluated,
		"insufficient", report.Insufficient,
		"profitable", report.Profitable,
		"duration", report.Duration.String(),
	)
	return report
}

func (o *Orchestrator) record(ctx context.Context, r *Report) {
	o.metrics.runs.Add(ctx, 1)
	o.metrics.runDuration.Record(ctx, r.Duration.Seconds())
	o.metrics.pairs.Add(ctx, int64(r.Evaluated-r.Profitable), metric.WithAttributes(attribute.String("outcome", "evaluated")))
	o.metrics.pairs.Add(ctx, int64(r.Profitable), metric.WithAttributes(attribute.String("outcome", "profitable")))
	o.metrics.pairs.Add(ctx, int64(r.Insufficient), metric.WithAttributes(attribute.String("outcome", "insufficient")))
	if len(r.Opportunities) > 0 {
		best, _ := r.Opportunities[0].AdjProfitPct.Float64()
		o.metrics.bestAdjProfit.Record(ctx, best)
	}
}

func (o *Orchestrator) runPair(ctx context.Context, rc *RunContext, pair pricingDomain.Pair) {
	if ctx.Err() != nil {
		rc.AddInsufficient()
		return
	}

	ctx, span := o.tracer.StartSpan(ctx, "arbitrage.pair", attribute.String("pair", pair.String()))
	defer span.End()

	set := o.aggregator.Aggregate(ctx, pair)
	opp, err := o.evaluator.Evaluate(set, rc.Reference)
	if err != nil {
		rc.AddInsufficient()
		if apperror.HasCode(err, apperror.CodeInsufficientCoverage) {
			o.log.Info(ctx, "insufficient coverage", "run_id", rc.ID, "pair", pair.String(), "venues", set.Len())
			return
		}
		span.NoticeError(err)
		o.log.Warn(ctx, "evaluation failed", "run_id", rc.ID, "pair", pair.String(), "error", err)
		return
	}
	rc.AddOpportunity(opp)
	span.SetAttributes(attribute.String("adj_profit_pct", opp.AdjProfitPct.String()))

	token := pair.Token()
	entry := historyDomain.NewEntry(opp.Timestamp, token, opp.Prices, rc.Reference.USD)
	if err := o.history.Append(ctx, entry); err != nil {
		span.NoticeError(err)
		o.log.Warn(ctx, "history append failed", "run_id", rc.ID, "pair", pair.String(), "error", err)
		return
	}

	trend, err := o.history.Trend(ctx, token.Symbol())
	switch {
	case err == nil:
		rc.AddTrend(trend)
	case apperror.HasCode(err, apperror.CodeTrendUnavailable):
		o.log.Debug(ctx, "trend unavailable", "token", token.Symbol(), "reason", err.Error())
	default:
		o.log.Warn(ctx, "trend failed", "token", token.Symbol(), "error", err)
	}

	if opp.Profitable {
		o.log.Info(ctx, "opportunity",
			"run_id", rc.ID,
			"pair", opp.PairName,
			"buy", string(opp.BuyVenue),
			"sell", string(opp.SellVenue),
			"adj_profit_pct", opp.AdjProfitPct.StringFixed(4),
		)
	}
}

func (o *Orchestrator) archive(ctx context.Context) {
	if o.archiver == nil {
		return
	}
	n, err := o.archiver.ArchiveClosed(ctx)
	if err != nil {
		o.log.Warn(ctx, "history archive incomplete", "archived", n, "error", err)
		return
	}
	if n > 0 {
		o.log.Info(ctx, "history archived", "partitions", n)
	}
}

// Watch scans immediately and then every interval until ctx ends, handing each
// outcome to sink. A failed scan is logged, passed on, and the loop continues.
func (o *Orchestrator) Watch(ctx context.Context, sink func(*Report, error)) error {
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		report, err := o.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			o.log.Error(ctx, "scan failed", "error", err)
		}
		sink(report, err)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
