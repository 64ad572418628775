// Package app contains the history service and its storage ports.
package app

import (
	"context"

	"github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
)

// Store persists day partitions of history entries. Append is durable before
// it returns and trims the partition to cap, oldest first. Load of a missing
// partition returns an empty slice.
type Store interface {
	Append(ctx context.Context, entry domain.Entry, cap int) error
	Load(ctx context.Context, p domain.Partition) ([]domain.Entry, error)
	// Pending lists partitions not yet archived.
	Pending(ctx context.Context) ([]domain.Partition, error)
	MarkArchived(ctx context.Context, p domain.Partition) error
	Ping(ctx context.Context) error
	Close() error
}

// Archiver uploads one closed partition.
type Archiver interface {
	Upload(ctx context.Context, key string, body []byte) error
}
