package ports

import (
	"context"

	"github.com/aretw0/gatehook/pkg/domain"
)

// StateStore defines the interface for persisting session records.
// Each hook process loads, updates and saves the whole record; there is no partial write.
type StateStore interface {
	// Save replaces the record for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.SessionState) error

	// Load retrieves the record for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist and
	// domain.ErrCorruptState if it exists but cannot be trusted.
	Load(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// Delete removes the record for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
