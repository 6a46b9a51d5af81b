package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/gatehook/pkg/adapters/memory"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryLedger_Contract(t *testing.T) {
	ports.RunLedgerStoreContract(t, memory.NewLedger())
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	state := &domain.SessionState{SessionID: "s", GateCriteria: []string{"a"}}
	require.NoError(t, store.Save(ctx, "s", state))

	state.GateCriteria[0] = "mutated"
	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, loaded.GateCriteria)
}
