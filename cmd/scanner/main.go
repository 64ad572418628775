// Package main is the entry point for the Solana DEX arbitrage scanner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage"
	arbitrageApp "github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/di"
	arbitrageInfra "github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/infra"
	"github.com/fd1az/dex-arbitrage-scanner/business/history"
	historyDI "github.com/fd1az/dex-arbitrage-scanner/business/history/di"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing"
	pricingDI "github.com/fd1az/dex-arbitrage-scanner/business/pricing/di"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apm"
	"github.com/fd1az/dex-arbitrage-scanner/internal/config"
	"github.com/fd1az/dex-arbitrage-scanner/internal/di"
	"github.com/fd1az/dex-arbitrage-scanner/internal/health"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
	"github.com/fd1az/dex-arbitrage-scanner/internal/metrics"
	"github.com/fd1az/dex-arbitrage-scanner/internal/monolith"
	"github.com/fd1az/dex-arbitrage-scanner/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath  string
	watch       bool
	cli         bool
	out         string
	archiveOnly bool
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&opts.watch, "watch", false, "Repeat the scan every scan.interval")
	flag.BoolVar(&opts.cli, "cli", false, "In watch mode, log reports instead of showing the TUI")
	flag.StringVar(&opts.out, "out", "", "Write the report as JSON to this file")
	flag.BoolVar(&opts.archiveOnly, "archive", false, "Archive closed history partitions and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dex-arbitrage-scanner %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (o options) tuiMode() bool {
	return o.watch && !o.cli
}

func run(ctx context.Context, opts options) (err error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Scan.WatchMode = opts.watch

	// Logs go to stderr, except under the TUI where only the log file (if any) gets them
	var console io.Writer = os.Stderr
	if opts.tuiMode() {
		console = nil
	}
	log := logger.New(
		logger.Output(console, logger.FileConfig{Path: cfg.App.LogFile}),
		logger.ParseLevel(cfg.App.LogLevel),
		cfg.App.Name,
		nil,
	)
	log.Info(ctx, "starting dex arbitrage scanner",
		"version", version,
		"environment", cfg.App.Environment,
		"watch", opts.watch,
	)

	shutdownTelemetry, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Service factories panic on construction errors; surface them as startup errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("startup failed: %v", r)
		}
	}()

	// Define modules in dependency order
	modules := []monolith.Module{
		&pricing.Module{},
		&history.Module{},
		&arbitrage.Module{}, // Depends on pricing and history
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if cfg.Health.Port > 0 {
		hs := health.NewServer(cfg.Health.Port, version, log)
		registerChecks(hs, mono.Services())
		hs.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = hs.Stop(stopCtx)
		}()
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
	}

	switch {
	case opts.archiveOnly:
		return runArchive(ctx, mono.Services(), log)
	case opts.watch:
		return runWatch(ctx, mono.Services(), cfg, opts, log)
	default:
		return runOnce(ctx, mono.Services(), opts, log)
	}
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	tp, err := apm.NewTraceProvider(ctx, apm.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	mp, err := metrics.NewMetricProvider(ctx, metrics.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		PrometheusPort: cfg.Telemetry.PrometheusPort,
	})
	if err != nil {
		_ = tp.Stop()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	var ms *metrics.Server
	if reg := mp.Registry(); reg != nil {
		ms = metrics.NewServer(cfg.Telemetry.PrometheusPort, reg, log)
		ms.Start()
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ms != nil {
			_ = ms.Stop(stopCtx)
		}
		_ = mp.Shutdown(stopCtx)
		_ = tp.Stop()
	}, nil
}

func registerChecks(hs *health.Server, sr di.ServiceRegistry) {
	hs.RegisterCheck("history", health.PingCheck(historyDI.GetService(sr).Ping))

	if a := historyDI.GetArchiver(sr); a != nil {
		hs.RegisterCheck("archive", health.PingCheck(a.Ping))
	}

	clients := pricingDI.GetVenueClients(sr)
	hs.RegisterCheck("venues", health.BreakerCheck(func() map[string]string {
		states := make(map[string]string)
		for _, c := range clients {
			for name, state := range c.Breakers() {
				states[name] = state
			}
		}
		return states
	}))
}

func runOnce(ctx context.Context, sr di.ServiceRegistry, opts options, log logger.LoggerInterface) error {
	report, err := arbitrageDI.GetOrchestrator(sr).Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	reporters := []arbitrageApp.Reporter{arbitrageInfra.NewConsoleReporter(os.Stdout)}
	if opts.out != "" {
		reporters = append(reporters, arbitrageInfra.NewJSONExporter(opts.out))
	}

	for _, r := range reporters {
		if err := r.Start(ctx); err != nil {
			return err
		}
		if err := r.Report(ctx, report); err != nil {
			log.Error(ctx, "report failed", "error", err)
		}
		_ = r.Stop()
	}
	return nil
}

func runArchive(ctx context.Context, sr di.ServiceRegistry, log logger.LoggerInterface) error {
	if historyDI.GetArchiver(sr) == nil {
		log.Warn(ctx, "history archiving is disabled, nothing to do")
		return nil
	}

	n, err := historyDI.GetService(sr).ArchiveClosed(ctx)
	if err != nil {
		log.Error(ctx, "archive incomplete", "archived", n, "error", err)
	}
	fmt.Printf("archived %d partition(s)\n", n)
	return nil
}

func runWatch(ctx context.Context, sr di.ServiceRegistry, cfg *config.Config, opts options, log logger.LoggerInterface) error {
	orchestrator := arbitrageDI.GetOrchestrator(sr)

	var exporter *arbitrageInfra.JSONExporter
	if opts.out != "" {
		exporter = arbitrageInfra.NewJSONExporter(opts.out)
		if err := exporter.Start(ctx); err != nil {
			return err
		}
	}
	export := func(r *arbitrageApp.Report) {
		if exporter == nil {
			return
		}
		if err := exporter.Report(ctx, r); err != nil {
			log.Error(ctx, "json export failed", "error", err)
		}
	}

	if !opts.tuiMode() {
		reporter := arbitrageInfra.NewLogReporter(log)
		_ = reporter.Start(ctx)
		defer reporter.Stop()

		return orchestrator.Watch(ctx, func(r *arbitrageApp.Report, err error) {
			if err != nil {
				return
			}
			_ = reporter.Report(ctx, r)
			export(r)
		})
	}

	return runTUI(ctx, cfg.Scan.Interval, func(ctx context.Context, reporter *arbitrageInfra.TUIReporter) error {
		_ = reporter.Start(ctx)
		return orchestrator.Watch(ctx, func(r *arbitrageApp.Report, err error) {
			if err != nil {
				reporter.Error(err)
				return
			}
			_ = reporter.Report(ctx, r)
			export(r)
		})
	})
}

// runTUI shows the TUI immediately and runs watch in the background until
// the user quits or ctx ends.
func runTUI(ctx context.Context, interval time.Duration, watch func(context.Context, *arbitrageInfra.TUIReporter) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.New(interval), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		errCh <- watch(ctx, arbitrageInfra.NewTUIReporter())
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}

	// The user quit; stop the watch loop and wait for the run in flight.
	cancel()
	return <-errCh
}
