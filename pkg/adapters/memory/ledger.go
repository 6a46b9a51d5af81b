package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/gatehook/pkg/domain"
)

// Ledger implements ports.LedgerStore in memory.
type Ledger struct {
	data map[string][]domain.LedgerEntry
	mu   sync.RWMutex
}

// NewLedger creates an empty in-memory ledger store.
func NewLedger() *Ledger {
	return &Ledger{data: make(map[string][]domain.LedgerEntry)}
}

// Append adds an entry at the end of the loop's ledger.
func (l *Ledger) Append(ctx context.Context, loopID string, entry domain.LedgerEntry) error {
	if loopID == "" {
		return domain.ErrEmptyKey
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[loopID] = append(l.data[loopID], entry)
	return nil
}

// Entries returns a copy of the loop's ledger.
func (l *Ledger) Entries(ctx context.Context, loopID string) ([]domain.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.data[loopID]), nil
}

// List returns loop IDs in lexical order.
func (l *Ledger) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.data))
	for id := range l.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
