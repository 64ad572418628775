package app

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// ServiceConfig bounds partitions and trends.
type ServiceConfig struct {
	Cap            int
	MinTrendPoints int
	ArchivePrefix  string
}

// Service records history entries and derives spread trends from them.
// Writes for one token are serialized; different tokens proceed concurrently.
type Service struct {
	store    Store
	archiver Archiver
	cfg      ServiceConfig
	log      logger.LoggerInterface
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates the history service. archiver may be nil, in which case
// ArchiveClosed does nothing.
func NewService(store Store, archiver Archiver, cfg ServiceConfig, log logger.LoggerInterface) *Service {
	if cfg.Cap < 1 {
		cfg.Cap = domain.DefaultCap
	}
	if cfg.MinTrendPoints < 1 {
		cfg.MinTrendPoints = domain.MinTrendPoints
	}
	return &Service{
		store:    store,
		archiver: archiver,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockFor(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[symbol]
	if !ok {
		l = &sync.Mutex{}
		s.locks[symbol] = l
	}
	return l
}

// Append stores one entry in its day partition.
func (s *Service) Append(ctx context.Context, entry domain.Entry) error {
	l := s.lockFor(entry.TokenSymbol)
	l.Lock()
	defer l.Unlock()

	if err := s.store.Append(ctx, entry, s.cfg.Cap); err != nil {
		if apperror.HasCode(err, apperror.CodeHistoryWriteFailed) {
			return err
		}
		return apperror.New(apperror.CodeHistoryWriteFailed,
			apperror.WithCause(err),
			apperror.WithContext(entry.Partition().Name()))
	}
	return nil
}

// Trend summarises today's (UTC) partition for symbol.
func (s *Service) Trend(ctx context.Context, symbol string) (domain.TrendStats, error) {
	p := domain.PartitionFor(s.now(), symbol)

	// Readers wait for an in-progress write to the same token.
	l := s.lockFor(symbol)
	l.Lock()
	entries, err := s.store.Load(ctx, p)
	l.Unlock()
	if err != nil {
		return domain.TrendStats{}, apperror.New(apperror.CodeHistoryReadFailed,
			apperror.WithCause(err),
			apperror.WithContext(p.Name()))
	}

	return domain.ComputeTrend(symbol, entries, s.cfg.MinTrendPoints)
}

// ArchiveClosed uploads every pending partition older than today and marks it
// archived. A failed partition is logged and left pending for the next run.
func (s *Service) ArchiveClosed(ctx context.Context) (int, error) {
	if s.archiver == nil {
		return 0, nil
	}

	pending, err := s.store.Pending(ctx)
	if err != nil {
		return 0, apperror.New(apperror.CodeHistoryReadFailed, apperror.WithCause(err))
	}

	today := domain.PartitionFor(s.now(), "").Day
	var (
		archived int
		errs     []error
	)
	for _, p := range pending {
		if !p.Before(today) {
			continue
		}
		if err := s.archive(ctx, p); err != nil {
			s.log.Warn(ctx, "partition archive failed", "partition", p.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		archived++
		s.log.Info(ctx, "partition archived", "partition", p.Name())
	}
	return archived, errors.Join(errs...)
}

func (s *Service) archive(ctx context.Context, p domain.Partition) error {
	l := s.lockFor(p.Symbol)
	l.Lock()
	defer l.Unlock()

	entries, err := s.store.Load(ctx, p)
	if err != nil {
		return apperror.New(apperror.CodeArchiveFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	body, err := json.Marshal(entries)
	if err != nil {
		return apperror.New(apperror.CodeArchiveFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	if err := s.archiver.Upload(ctx, ArchiveKey(s.cfg.ArchivePrefix, p), body); err != nil {
		return apperror.New(apperror.CodeArchiveFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	if err := s.store.MarkArchived(ctx, p); err != nil {
		return apperror.New(apperror.CodeArchiveFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	return nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ArchiveKey is {prefix}/{YYYY-MM-DD}/{YYYY-MM-DD}_{SYMBOL}.json, with the
// symbol escaped as in Partition.Name.
func ArchiveKey(prefix string, p domain.Partition) string {
	return path.Join(prefix, p.Day, p.Name())
}
