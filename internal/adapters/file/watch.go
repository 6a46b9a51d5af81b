package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch emits the file key of every session record that is created, replaced
// or removed, until ctx is done. Keys of hashed IDs carry the sid- prefix.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure sessions directory: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(s.BasePath); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.BasePath, err)
	}

	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				id, relevant := sessionEvent(ev)
				if !relevant {
					continue
				}
				select {
				case ch <- id:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return ch, nil
}

func sessionEvent(ev fsnotify.Event) (string, bool) {
	name := filepath.Base(ev.Name)
	if filepath.Ext(name) != stateExt {
		return "", false
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	return strings.TrimSuffix(name, stateExt), true
}
