package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/gatehook/internal/adapters/file"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryEntry(note string) domain.LedgerEntry {
	return domain.LedgerEntry{Kind: domain.EntryMemory, Memory: &domain.MemoryNote{Note: note}}
}

func TestFileLedger_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Each store instance stands in for a separate hook process.
	for _, note := range []string{"one", "two", "three"} {
		require.NoError(t, file.NewLedger(dir).Append(ctx, "loop-1", memoryEntry(note)))
	}

	entries, err := file.NewLedger(dir).Entries(ctx, "loop-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "one", entries[0].Memory.Note)
	assert.Equal(t, "three", entries[2].Memory.Note)
}

func TestFileLedger_SkipsTornLines(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ledger := file.NewLedger(dir)

	require.NoError(t, ledger.Append(ctx, "l", memoryEntry("kept")))
	f, err := os.OpenFile(ledger.Path("l"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"kind":"loop_memory","loop_mem`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := ledger.Entries(ctx, "l")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Memory.Note)
}

func TestFileLedger_RemovesLockAfterAppend(t *testing.T) {
	dir := t.TempDir()
	ledger := file.NewLedger(dir)
	require.NoError(t, ledger.Append(context.Background(), "l", memoryEntry("x")))

	matches, err := filepath.Glob(filepath.Join(dir, "*.lock"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLocker_Contention(t *testing.T) {
	ctx := context.Background()
	locker := file.NewLocker(t.TempDir())

	unlock, err := locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "k", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	unlock, err = locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_RecoversStaleLock(t *testing.T) {
	dir := t.TempDir()
	locker := file.NewLocker(dir)
	lockPath := filepath.Join(dir, "k.lock")
	require.NoError(t, os.WriteFile(lockPath, []byte("999999\n"), 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestReapStaleLock(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "k.lock")

	require.NoError(t, os.WriteFile(lockPath, []byte("1\n"), 0o600))
	assert.False(t, file.ReapStaleLock(lockPath, time.Minute), "a fresh lock is left alone")
	assert.FileExists(t, lockPath)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockPath, old, old))
	assert.True(t, file.ReapStaleLock(lockPath, time.Minute))
	assert.NoFileExists(t, lockPath)

	assert.False(t, file.ReapStaleLock(lockPath, time.Minute), "nothing left to reap")

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.stale"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestControlFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "verify-active.json")
	control := file.NewControlFile(path)

	_, ok := control.ActiveLoop(ctx)
	assert.False(t, ok, "missing file means no active loop")

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	_, ok = control.ActiveLoop(ctx)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(`{"sessionId":""}`), 0o644))
	_, ok = control.ActiveLoop(ctx)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(`{"sessionId":"ralph-42","startedAt":"now"}`), 0o644))
	id, ok := control.ActiveLoop(ctx)
	assert.True(t, ok)
	assert.Equal(t, "ralph-42", id)

	require.NoError(t, os.WriteFile(path, []byte(`{"loop_id":"loop-7"}`), 0o644))
	id, ok = control.ActiveLoop(ctx)
	assert.True(t, ok)
	assert.Equal(t, "loop-7", id)
}

func TestStore_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := file.New(t.TempDir())

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "watched", domain.NewSessionState("watched")))

	select {
	case id := <-events:
		assert.Equal(t, "watched", id)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for saved session")
	}

	cancel()
	for range events {
		// drain until the watcher closes the channel
	}
}
