// Package pgstore keeps history partitions in PostgreSQL, one row per entry.
package pgstore

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fd1az/dex-arbitrage-scanner/business/history/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds the pool settings.
type Config struct {
	DSN      string
	MaxConns int
}

// Store implements app.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ app.Store = (*Store)(nil)

// New connects, pings and applies pending migrations.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies embedded migrations in file name order, tracking them in
// schema_migrations.
func (s *Store) migrate(ctx context.Context) error {
	const createTracker = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := s.pool.Exec(ctx, createTracker); err != nil {
		return fmt.Errorf("postgres: create schema_migrations table: %w", err)
	}

	files, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: read migrations dir: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		var applied bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)", name,
		).Scan(&applied); err != nil {
			return fmt.Errorf("postgres: check migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("postgres: read migration %s: %w", name, err)
		}

		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (filename) VALUES ($1)", name)
			return err
		})
		if err != nil {
			return fmt.Errorf("postgres: apply migration %s: %w", name, err)
		}
	}
	return nil
}

// Append inserts the entry and trims its partition to cap in one transaction.
func (s *Store) Append(ctx context.Context, entry domain.Entry, cap int) error {
	prices, err := json.Marshal(entry.Prices)
	if err != nil {
		return fmt.Errorf("postgres: encode prices: %w", err)
	}
	p := entry.Partition()

	const insert = `
		INSERT INTO history_entries (
			day, token_symbol, token_address, ts, time_of_day, prices, reference_price_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	// Rows beyond the newest cap are evicted, oldest first.
	const trim = `
		DELETE FROM history_entries
		WHERE token_symbol = $1 AND day = $2 AND id IN (
			SELECT id FROM history_entries
			WHERE token_symbol = $1 AND day = $2
			ORDER BY id DESC
			OFFSET $3
		)`

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insert,
			p.Day, entry.TokenSymbol, entry.TokenAddress, entry.Timestamp,
			entry.Time, prices, entry.ReferencePriceUSD,
		); err != nil {
			return err
		}
		if cap < 1 {
			return nil
		}
		_, err := tx.Exec(ctx, trim, p.Symbol, p.Day, cap)
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres: append %s: %w", p.Name(), err)
	}
	return nil
}

// Load returns a partition in insertion order.
func (s *Store) Load(ctx context.Context, p domain.Partition) ([]domain.Entry, error) {
	const query = `
		SELECT ts, time_of_day, token_symbol, token_address, prices, reference_price_usd
		FROM history_entries
		WHERE token_symbol = $1 AND day = $2
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, p.Symbol, p.Day)
	if err != nil {
		return nil, fmt.Errorf("postgres: load %s: %w", p.Name(), err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var (
			e      domain.Entry
			prices []byte
		)
		if err := rows.Scan(&e.Timestamp, &e.Time, &e.TokenSymbol, &e.TokenAddress, &prices, &e.ReferencePriceUSD); err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", p.Name(), err)
		}
		e.Prices = make(map[pricingDomain.VenueID]float64)
		if err := json.Unmarshal(prices, &e.Prices); err != nil {
			return nil, fmt.Errorf("postgres: decode prices %s: %w", p.Name(), err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load %s: %w", p.Name(), err)
	}
	return entries, nil
}

// Pending lists partitions holding rows not yet archived.
func (s *Store) Pending(ctx context.Context) ([]domain.Partition, error) {
	const query = `
		SELECT DISTINCT day, token_symbol
		FROM history_entries
		WHERE NOT archived
		ORDER BY day, token_symbol`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pending: %w", err)
	}
	defer rows.Close()

	var out []domain.Partition
	for rows.Next() {
		var p domain.Partition
		if err := rows.Scan(&p.Day, &p.Symbol); err != nil {
			return nil, fmt.Errorf("postgres: scan pending: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkArchived flags every row of the partition.
func (s *Store) MarkArchived(ctx context.Context, p domain.Partition) error {
	const query = `
		UPDATE history_entries SET archived = TRUE
		WHERE token_symbol = $1 AND day = $2`

	if _, err := s.pool.Exec(ctx, query, p.Symbol, p.Day); err != nil {
		return fmt.Errorf("postgres: mark archived %s: %w", p.Name(), err)
	}
	return nil
}

// Ping checks the pool can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close shuts down the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
