package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/gatehook/pkg/domain"
)

const (
	ledgerExt       = ".jsonl"
	ledgerLockTTL   = 2 * time.Minute
	ledgerLockWait  = 5 * time.Second
	maxLedgerLine   = 4 * 1024 * 1024
	defaultLoopsDir = ".gatehook/state/loops"
)

// Ledger implements ports.LedgerStore as one JSON Lines file per loop.
// Each Append writes exactly one line under a cross-process lock and fsyncs
// before returning, so entries survive the process that wrote them.
type Ledger struct {
	BasePath string
	locker   *Locker
}

// NewLedger creates a ledger store rooted at basePath.
func NewLedger(basePath string) *Ledger {
	if basePath == "" {
		basePath = filepath.FromSlash(defaultLoopsDir)
	}
	return &Ledger{BasePath: basePath, locker: NewLocker(basePath)}
}

// Path returns the file backing a loop's ledger.
func (l *Ledger) Path(loopID string) string {
	return filepath.Join(l.BasePath, Key(loopID)+ledgerExt)
}

// Append writes one entry as a single line at the end of the loop's file.
func (l *Ledger) Append(ctx context.Context, loopID string, entry domain.LedgerEntry) error {
	if loopID == "" {
		return domain.ErrEmptyKey
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	line = append(line, '\n')

	lockCtx, cancel := context.WithTimeout(ctx, ledgerLockWait)
	defer cancel()
	unlock, err := l.locker.Lock(lockCtx, "ledger-"+Key(loopID), ledgerLockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock ledger: %w", err)
	}
	defer func() { _ = unlock(ctx) }()

	f, err := os.OpenFile(l.Path(loopID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to fsync ledger: %w", err)
	}
	return nil
}

// Entries reads the loop's file in order. Lines that do not decode into a
// valid entry (a torn final line, manual edits) are skipped.
func (l *Ledger) Entries(ctx context.Context, loopID string) ([]domain.LedgerEntry, error) {
	data, err := os.ReadFile(l.Path(loopID))
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.LedgerEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	entries := []domain.LedgerEntry{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLedgerLine)
	for scanner.Scan() {
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var e domain.LedgerEntry
		if err := json.Unmarshal(b, &e); err != nil || !e.Valid() {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("failed to scan ledger: %w", err)
	}
	return entries, nil
}

// List returns the file keys of all ledgers.
func (l *Ledger) List(ctx context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(l.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	ids := []string{}
	for _, e := range dirEntries {
		if e.IsDir() || filepath.Ext(e.Name()) != ledgerExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ledgerExt))
	}
	sort.Strings(ids)
	return ids, nil
}
