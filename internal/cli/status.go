package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/gatehook/internal/presentation/tui"
	"github.com/aretw0/gatehook/pkg/domain"
)

// StatusOptions selects how status and loop reports are printed.
type StatusOptions struct {
	JSON    bool
	Plain   bool // markdown without terminal styling
	Version string
}

// Status prints one session record.
func Status(ctx context.Context, app *App, sessionID string, w io.Writer, opts StatusOptions) error {
	state, err := app.Store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
	}
	if opts.JSON {
		return writeIndented(w, state)
	}
	return render(w, opts, "session "+sessionID, tui.SessionMarkdown(state))
}

// LoopReport prints the ledger of loopID, or of the active loop when empty.
func LoopReport(ctx context.Context, app *App, loopID string, w io.Writer, opts StatusOptions) error {
	if loopID == "" {
		id, ok := app.Loops.ActiveLoop(ctx)
		if !ok {
			return domain.ErrNoActiveLoop
		}
		loopID = id
	}
	entries, err := app.Ledger.Entries(ctx, loopID)
	if err != nil {
		return fmt.Errorf("failed to read ledger '%s': %w", loopID, err)
	}
	ls := domain.FoldLedger(loopID, entries)
	if opts.JSON {
		return writeIndented(w, ls)
	}
	return render(w, opts, "loop "+loopID, tui.LoopMarkdown(ls, app.Config.MemoryNotes))
}

func render(w io.Writer, opts StatusOptions, subject, markdown string) error {
	if opts.Plain {
		_, err := io.WriteString(w, markdown)
		return err
	}
	tui.PrintHeader(w, opts.Version, subject)
	out, err := tui.NewRenderer()(markdown)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func writeIndented(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
