package ports

import "context"

// ActiveLoopSource names the autonomous loop that is currently live.
// The name is owned by an external collaborator; this side only reads it.
type ActiveLoopSource interface {
	// ActiveLoop returns the live loop ID, or false when no loop is active.
	ActiveLoop(ctx context.Context) (string, bool)
}
