package file_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/gatehook/internal/adapters/file"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, file.New(t.TempDir()))
}

func TestFileLedger_Contract(t *testing.T) {
	ports.RunLedgerStoreContract(t, file.NewLedger(t.TempDir()))
}

func TestFileStore_MissingIsNotFound(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "never-created"))
	_, err := store.Load(context.Background(), "fresh-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, os.WriteFile(store.Path("s1"), []byte(`{"version":1,"digest":`), 0o644))

	_, err := store.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrCorruptState)
}

func TestFileStore_RetriesTornRead(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())
	want := &domain.SessionState{SessionID: "s1", ChainID: "c1", CurrentStep: 2, TotalSteps: 5, PendingGate: "Review"}
	require.NoError(t, store.Save(ctx, "s1", want))

	reads := 0
	restore := file.SetReadFile(func(path string) ([]byte, error) {
		reads++
		data, err := os.ReadFile(path)
		if err != nil || reads > 1 {
			return data, err
		}
		// first read lands while a writer is halfway through
		return data[:len(data)/2], nil
	})
	defer restore()

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, reads)
	assert.Equal(t, want.ChainID, got.ChainID)
	assert.Equal(t, want.PendingGate, got.PendingGate)
}

func TestFileStore_TornTwiceIsCorrupt(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())
	require.NoError(t, store.Save(ctx, "s1", &domain.SessionState{SessionID: "s1", ChainID: "c1"}))

	reads := 0
	restore := file.SetReadFile(func(path string) ([]byte, error) {
		reads++
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return data[:len(data)/2], nil
	})
	defer restore()

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrCorruptState)
	assert.Equal(t, 2, reads, "one retry, no more")
}

func TestFileStore_DigestMismatch(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())
	require.NoError(t, store.Save(ctx, "s1", &domain.SessionState{SessionID: "s1", CurrentStep: 2, TotalSteps: 5}))

	data, err := os.ReadFile(store.Path("s1"))
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"current_step": 2`, `"current_step": 4`, 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(store.Path("s1"), []byte(tampered), 0o644))

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrCorruptState)
}

func TestFileStore_SchemaViolation(t *testing.T) {
	store := file.New(t.TempDir())
	require.NoError(t, os.MkdirAll(store.BasePath, 0o755))
	require.NoError(t, os.WriteFile(store.Path("s1"), []byte(`{"session_id":"s1","current_step":-1,"total_steps":"x"}`), 0o644))

	_, err := store.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrCorruptState)
}

func TestFileStore_AcceptsBareState(t *testing.T) {
	store := file.New(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path("s1"), []byte(`{"session_id":"s1","chain_id":"c1","current_step":2,"total_steps":5,"pending_gate":"review"}`), 0o644))

	state, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "c1", state.ChainID)
	assert.Equal(t, "review", state.PendingGate)
}

func TestFileStore_UnsafeSessionIDIsHashed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)
	id := "../../etc/passwd"

	require.NoError(t, store.Save(ctx, id, domain.NewSessionState(id)))

	path := store.Path(id)
	assert.Equal(t, dir, filepath.Dir(path), "hashed key must stay inside the store directory")
	assert.True(t, strings.HasPrefix(filepath.Base(path), "sid-"))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.SessionID)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, "s1", &domain.SessionState{SessionID: "s1", CurrentStep: i + 1, TotalSteps: 3}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "abc-123_x.y", file.Key("abc-123_x.y"))
	assert.Equal(t, file.Key("a/b"), file.Key("a/b"), "hashing is deterministic")
	assert.NotEqual(t, "a/b", file.Key("a/b"))
	assert.True(t, strings.HasPrefix(file.Key(".."), "sid-"))
	assert.True(t, strings.HasPrefix(file.Key(""), "sid-"))
}
