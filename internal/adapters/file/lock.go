package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/gatehook/pkg/ports"
)

const lockRetry = 10 * time.Millisecond

// Locker implements ports.DistributedLocker with O_EXCL lock files, which
// works across the independent hook processes sharing a state directory.
// A lock file older than the ttl given to Lock is treated as abandoned.
type Locker struct {
	BasePath string
}

// NewLocker creates a locker keeping its lock files in basePath.
func NewLocker(basePath string) *Locker {
	return &Locker{BasePath: basePath}
}

// Lock acquires <BasePath>/<key>.lock, polling until it is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if key == "" {
		return nil, errors.New("lock key cannot be empty")
	}
	if err := os.MkdirAll(l.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure lock directory: %w", err)
	}
	lockPath := filepath.Join(l.BasePath, Key(key)+".lock")

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func(context.Context) error {
				if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to release lock: %w", err)
				}
				return nil
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if reapStale(lockPath, ttl) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetry):
		}
	}
}

// reapStale removes an abandoned lock file. The file is first renamed to a
// name unique to this caller and checked again there, so a waiter that judged
// the lock stale a moment too late cannot delete a lock another waiter just
// took; such a lock is linked back into place.
func reapStale(lockPath string, ttl time.Duration) bool {
	if !stale(lockPath, ttl) {
		return false
	}
	grave := fmt.Sprintf("%s.%d.%d.stale", lockPath, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(lockPath, grave); err != nil {
		// Someone else reaped or released it; just retry the acquire.
		return os.IsNotExist(err)
	}
	defer os.Remove(grave)

	if !stale(grave, ttl) {
		_ = os.Link(grave, lockPath)
		return false
	}
	return true
}

func stale(path string, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > ttl
}
