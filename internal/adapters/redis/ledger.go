package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/gatehook/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Ledger implements ports.LedgerStore with one Redis list per loop.
// RPUSH is atomic, so concurrent hook processes never interleave partial entries.
type Ledger struct {
	client *backend.Client
	prefix string
}

// NewLedger creates a ledger store sharing the client and prefix of a Store.
func NewLedger(client *backend.Client, prefix string) *Ledger {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Ledger{client: client, prefix: prefix}
}

func (l *Ledger) key(loopID string) string {
	return l.prefix + "loop:" + loopID
}

func (l *Ledger) indexKey() string {
	return l.prefix + "loop:index"
}

// Append pushes one entry onto the loop's list.
func (l *Ledger) Append(ctx context.Context, loopID string, entry domain.LedgerEntry) error {
	if loopID == "" {
		return domain.ErrEmptyKey
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, l.key(loopID), data)
	pipe.SAdd(ctx, l.indexKey(), loopID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis ledger: %w", err)
	}
	return nil
}

// Entries reads the whole list. Entries that fail to decode are skipped.
func (l *Ledger) Entries(ctx context.Context, loopID string) ([]domain.LedgerEntry, error) {
	raw, err := l.client.LRange(ctx, l.key(loopID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read redis ledger: %w", err)
	}
	entries := make([]domain.LedgerEntry, 0, len(raw))
	for _, item := range raw {
		var e domain.LedgerEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil || !e.Valid() {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// List returns every loop ID with a ledger.
func (l *Ledger) List(ctx context.Context) ([]string, error) {
	ids, err := l.client.SMembers(ctx, l.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list redis ledgers: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
