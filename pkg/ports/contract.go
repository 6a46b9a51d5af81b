package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load round-trip", func(t *testing.T) {
		state := &domain.SessionState{
			SessionID:          sessionID,
			ChainID:            "chain-1",
			CurrentStep:        2,
			TotalSteps:         5,
			PendingGate:        "code-quality",
			GateCriteria:       []string{"tests pass", "no TODOs"},
			PendingShellVerify: "go test ./...",
			GateFailures:       1,
			UpdatedAt:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		require.NoError(t, store.Save(ctx, sessionID, state), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state, loaded)
	})

	t.Run("Save replaces the whole record", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, &domain.SessionState{SessionID: sessionID, CurrentStep: 1, TotalSteps: 2}))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, loaded.PendingGate)
		assert.Empty(t, loaded.GateCriteria)
		assert.Equal(t, 1, loaded.CurrentStep)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSessionState(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSessionState(id1))
		_ = store.Save(ctx, id2, domain.NewSessionState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunLedgerStoreContract verifies that a LedgerStore implementation keeps entries
// append-only and in call order.
func RunLedgerStoreContract(t *testing.T, store LedgerStore) {
	ctx := context.Background()
	loopID := "contract-test-loop-" + time.Now().Format("20060102150405")

	t.Run("Unknown loop is empty", func(t *testing.T) {
		entries, err := store.Entries(ctx, "missing-"+loopID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Append keeps call order", func(t *testing.T) {
		const n = 5
		for i := 0; i < n; i++ {
			err := store.Append(ctx, loopID, domain.LedgerEntry{
				Kind: domain.EntryFileChange,
				FileChange: &domain.FileChange{
					File:       fmt.Sprintf("file-%d.go", i),
					ChangeType: domain.ChangeModify,
					Details:    "edit",
				},
			})
			require.NoError(t, err)
		}
		require.NoError(t, store.Append(ctx, loopID, domain.LedgerEntry{
			Kind:   domain.EntryMemory,
			Memory: &domain.MemoryNote{Note: "done"},
		}))

		entries, err := store.Entries(ctx, loopID)
		require.NoError(t, err)
		require.Len(t, entries, n+1)
		for i := 0; i < n; i++ {
			require.Equal(t, domain.EntryFileChange, entries[i].Kind)
			assert.Equal(t, fmt.Sprintf("file-%d.go", i), entries[i].FileChange.File)
		}
		assert.Equal(t, "done", entries[n].Memory.Note)
	})

	t.Run("List", func(t *testing.T) {
		loops, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, loops, loopID)
	})
}
