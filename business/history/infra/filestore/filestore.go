// Package filestore keeps history partitions as JSON array files, one per
// (UTC day, token symbol).
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/history/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

const (
	archivedSuffix = ".archived"
	corruptSuffix  = ".corrupt"
)

var errUndecodable = errors.New("undecodable partition")

// Store writes {dir}/{YYYY-MM-DD}_{SYMBOL}.json. An archived partition gets an
// empty {name}.archived marker next to it.
type Store struct {
	dir string
	log logger.LoggerInterface
}

var _ app.Store = (*Store)(nil)

// New creates dir if needed.
func New(dir string, log logger.LoggerInterface) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("history dir "+dir))
	}
	return &Store{dir: dir, log: log}, nil
}

func (s *Store) path(p domain.Partition) string {
	return filepath.Join(s.dir, p.Name())
}

// Append rewrites the partition with the entry added, trimmed to cap. The new
// file is fsynced and renamed over the old one, so a crash leaves either the
// old or the new partition.
func (s *Store) Append(ctx context.Context, entry domain.Entry, cap int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := entry.Partition()

	entries, err := s.Load(ctx, p)
	if errors.Is(err, errUndecodable) {
		entries, err = nil, s.quarantine(ctx, p)
	}
	if err != nil {
		return err
	}
	entries = domain.Trim(append(entries, entry), cap)

	body, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return apperror.New(apperror.CodeHistoryWriteFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	if err := writeAtomic(s.path(p), body); err != nil {
		return apperror.New(apperror.CodeHistoryWriteFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	return nil
}

func writeAtomic(path string, body []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	// Persist the rename itself. Not every platform can sync a directory.
	if d, derr := os.Open(filepath.Dir(path)); derr == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

// Load reads one partition. A missing file is an empty partition.
func (s *Store) Load(ctx context.Context, p domain.Partition) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(s.path(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.New(apperror.CodeHistoryReadFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	if len(body) == 0 {
		return nil, nil
	}

	var entries []domain.Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, apperror.New(apperror.CodeHistoryReadFailed,
			apperror.WithCause(fmt.Errorf("%w: %w", errUndecodable, err)),
			apperror.WithContext(p.Name()))
	}
	return entries, nil
}

// quarantine moves an undecodable partition aside so the day can start over.
func (s *Store) quarantine(ctx context.Context, p domain.Partition) error {
	from := s.path(p)
	to := fmt.Sprintf("%s.%d%s", from, time.Now().Unix(), corruptSuffix)
	if err := os.Rename(from, to); err != nil {
		return apperror.New(apperror.CodeHistoryWriteFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	s.log.Warn(ctx, "corrupt history partition moved aside",
		"partition", p.Name(),
		"moved_to", filepath.Base(to),
	)
	return nil
}

// Pending lists partition files without an archive marker, oldest day first.
func (s *Store) Pending(ctx context.Context) ([]domain.Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperror.New(apperror.CodeHistoryReadFailed, apperror.WithCause(err), apperror.WithContext(s.dir))
	}

	names := make(map[string]bool, len(files))
	for _, f := range files {
		names[f.Name()] = true
	}

	var out []domain.Partition
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		p, ok := domain.ParsePartitionName(f.Name())
		if !ok || names[f.Name()+archivedSuffix] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}

// MarkArchived drops the marker file.
func (s *Store) MarkArchived(_ context.Context, p domain.Partition) error {
	if err := os.WriteFile(s.path(p)+archivedSuffix, nil, 0o644); err != nil {
		return apperror.New(apperror.CodeHistoryWriteFailed, apperror.WithCause(err), apperror.WithContext(p.Name()))
	}
	return nil
}

// Ping checks the directory is still there and writable.
func (s *Store) Ping(context.Context) error {
	f, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return apperror.New(apperror.CodeHistoryWriteFailed, apperror.WithCause(err), apperror.WithContext(s.dir))
	}
	f.Close()
	os.Remove(f.Name())
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
