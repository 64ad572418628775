// Package history implements the history bounded context: per-day price
// partitions, spread trends and archiving of closed days.
package history

import (
	"context"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/history/app"
	historyDI "github.com/fd1az/dex-arbitrage-scanner/business/history/di"
	"github.com/fd1az/dex-arbitrage-scanner/business/history/infra/filestore"
	"github.com/fd1az/dex-arbitrage-scanner/business/history/infra/pgstore"
	"github.com/fd1az/dex-arbitrage-scanner/business/history/infra/s3archive"
	"github.com/fd1az/dex-arbitrage-scanner/internal/config"
	"github.com/fd1az/dex-arbitrage-scanner/internal/di"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
	"github.com/fd1az/dex-arbitrage-scanner/internal/monolith"
)

const connectTimeout = 10 * time.Second

// Module implements the history bounded context.
type Module struct{}

// RegisterServices registers the store, the archiver and the service.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, historyDI.Store, func(sr di.ServiceRegistry) app.Store {
		cfg := sr.Get("config").(*config.Config)

		switch cfg.History.Backend {
		case config.HistoryBackendPostgres:
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()

			store, err := pgstore.New(ctx, pgstore.Config{DSN: cfg.History.PostgresDSN})
			if err != nil {
				panic("failed to open postgres history store: " + err.Error())
			}
			return store
		default:
			log := sr.Get("logger").(logger.LoggerInterface)
			store, err := filestore.New(cfg.History.Dir, log)
			if err != nil {
				panic("failed to open history dir: " + err.Error())
			}
			return store
		}
	})

	di.RegisterToken(c, historyDI.Archiver, func(sr di.ServiceRegistry) *s3archive.Archiver {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.History.Archive.Enabled {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		a := cfg.History.Archive
		archiver, err := s3archive.New(ctx, s3archive.Config{
			Bucket:         a.Bucket,
			Region:         a.Region,
			Endpoint:       a.Endpoint,
			AccessKey:      a.AccessKey,
			SecretKey:      a.SecretKey,
			ForcePathStyle: a.ForcePathStyle,
		})
		if err != nil {
			panic("failed to create s3 archiver: " + err.Error())
		}
		return archiver
	})

	di.RegisterToken(c, historyDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var archiver app.Archiver
		if a := historyDI.GetArchiver(sr); a != nil {
			archiver = a
		}

		return app.NewService(historyDI.GetStore(sr), archiver, app.ServiceConfig{
			Cap:            cfg.History.Cap,
			MinTrendPoints: cfg.History.MinTrendPoints,
			ArchivePrefix:  cfg.History.Archive.Prefix,
		}, log)
	})

	return nil
}

// Startup opens the store so a bad DSN or directory fails before the first run.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	store := historyDI.GetStore(mono.Services())
	mono.OnClose(store)

	if err := historyDI.GetService(mono.Services()).Ping(ctx); err != nil {
		return err
	}

	log.Info(ctx, "history module started",
		"backend", cfg.History.Backend,
		"archive", cfg.History.Archive.Enabled)
	return nil
}
