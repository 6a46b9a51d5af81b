package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/gatehook/pkg/reminder"
)

// ErrNotWatchable is returned when the configured store has no change feed.
var ErrNotWatchable = errors.New("store cannot be watched (file store only)")

// RunWatch prints a line for every session record that changes until ctx ends.
// Records that vanish or fail to load are reported as removed.
func RunWatch(ctx context.Context, app *App, w io.Writer) error {
	store, ok := app.Watcher()
	if !ok {
		return ErrNotWatchable
	}
	changes, err := store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	app.Logger.Info("Starting Watcher", "path", app.Config.SessionsDir())
	printSystemMessage(w, "Watching sessions in '%s'.", app.Config.SessionsDir())

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-changes:
			if !ok {
				return nil
			}
			state, found := app.Sessions.Load(ctx, key)
			if !found {
				printSystemMessage(w, "%s removed", key)
				continue
			}
			line := reminder.Format(state)
			if line == "" {
				line = "idle"
			}
			printSystemMessage(w, "%s: %s", key, line)
		}
	}
}
