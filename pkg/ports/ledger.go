package ports

import (
	"context"

	"github.com/aretw0/gatehook/pkg/domain"
)

// LedgerStore persists the append-only ledger of an autonomous loop.
// The ledger is created lazily by the first Append and is never pruned.
type LedgerStore interface {
	// Append durably adds one entry at the end of the loop's ledger.
	Append(ctx context.Context, loopID string, entry domain.LedgerEntry) error

	// Entries returns every entry of the loop's ledger in append order.
	// An unknown loop yields an empty slice, not an error.
	Entries(ctx context.Context, loopID string) ([]domain.LedgerEntry, error)

	// List returns the IDs of all loops that have a ledger.
	List(ctx context.Context) ([]string, error)
}
