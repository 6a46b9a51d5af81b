package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/gatehook/pkg/domain"
)

const (
	stateExt   = ".json"
	readRetry  = 15 * time.Millisecond
	defaultDir = ".gatehook/state/sessions"
)

// readFile is swapped in tests to stage a torn read.
var readFile = os.ReadFile

// Store implements ports.StateStore using the local filesystem.
// Each session is one JSON record at <BasePath>/<Key(sessionID)>.json.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".gatehook/state/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.FromSlash(defaultDir)
	}
	return &Store{BasePath: basePath}
}

// Path returns the file a session is stored in.
func (s *Store) Path(sessionID string) string {
	return filepath.Join(s.BasePath, Key(sessionID)+stateExt)
}

// Save persists the session state atomically.
// It writes to a temporary file in the same directory, syncs it, and renames it
// over the destination, so a concurrent Load sees either the old or the new record.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	if sessionID == "" {
		return domain.ErrEmptyKey
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := encodeRecord(state)
	if err != nil {
		return err
	}
	return writeAtomic(s.BasePath, s.Path(sessionID), data)
}

// Load retrieves the session state. A record that fails to parse is read a
// second time before being reported as corrupt, in case a writer on a
// filesystem without atomic rename was caught mid-write.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	if sessionID == "" {
		return nil, domain.ErrEmptyKey
	}
	path := s.Path(sessionID)

	state, err := readRecord(path)
	if errors.Is(err, domain.ErrCorruptState) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(readRetry):
		}
		state, err = readRecord(path)
	}
	return state, err
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrEmptyKey
	}
	err := os.Remove(s.Path(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the stored session IDs. Hashed file names are resolved by
// reading the session ID from the record itself.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != stateExt {
			continue
		}
		id := strings.TrimSuffix(name, stateExt)
		if strings.HasPrefix(id, hashedPrefix) {
			if state, err := readRecord(filepath.Join(s.BasePath, name)); err == nil && state.SessionID != "" {
				id = state.SessionID
			}
		}
		sessions = append(sessions, id)
	}
	return sessions, nil
}

func readRecord(path string) (*domain.SessionState, error) {
	data, err := readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return decodeRecord(data)
}

// writeAtomic writes data to dest through a synced temp file and a rename.
func writeAtomic(dir, dest string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
