package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises access to a key across processes.
// Hooks run as independent processes, so the in-process mutex of the session
// store is not enough on its own when two events for one session overlap.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held, the context is canceled, or
	// the implementation gives up. A lock left behind by a dead holder expires after ttl.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
