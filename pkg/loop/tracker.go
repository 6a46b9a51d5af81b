package loop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gatehook/internal/logging"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/hook"
	"github.com/aretw0/gatehook/pkg/ports"
)

// Tracker appends to the ledger of one loop.
type Tracker struct {
	loopID string
	store  ports.LedgerStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithClock overrides the time source used for RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a tracker for loopID. An empty ID is ErrNoActiveLoop.
func NewTracker(loopID string, store ports.LedgerStore, opts ...Option) (*Tracker, error) {
	if loopID == "" {
		return nil, domain.ErrNoActiveLoop
	}
	t := &Tracker{
		loopID: loopID,
		store:  store,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Active opens a tracker for the loop named by src.
// It returns ErrNoActiveLoop when no loop is live.
func Active(ctx context.Context, src ports.ActiveLoopSource, store ports.LedgerStore, opts ...Option) (*Tracker, error) {
	id, ok := src.ActiveLoop(ctx)
	if !ok {
		return nil, domain.ErrNoActiveLoop
	}
	return NewTracker(id, store, opts...)
}

// LoopID returns the tracked loop.
func (t *Tracker) LoopID() string {
	return t.loopID
}

// RecordFileChange appends a file change.
func (t *Tracker) RecordFileChange(ctx context.Context, file string, changeType domain.ChangeType, details string) error {
	return t.append(ctx, domain.LedgerEntry{
		Kind:       domain.EntryFileChange,
		FileChange: &domain.FileChange{File: file, ChangeType: changeType, Details: details, RecordedAt: t.stamp()},
	})
}

// RecordCommand appends a command summary, capped to domain.MaxCommandSummaryLen.
func (t *Tracker) RecordCommand(ctx context.Context, summary string, isVerification bool) error {
	return t.append(ctx, domain.LedgerEntry{
		Kind:    domain.EntryCommand,
		Command: &domain.CommandRecord{Command: CommandSummary(summary), IsVerification: isVerification, RecordedAt: t.stamp()},
	})
}

// RecordSubagentResult appends a sub-task summary, capped to domain.MaxSubagentSummaryLen.
func (t *Tracker) RecordSubagentResult(ctx context.Context, agentType, summary string) error {
	return t.recordSubagent(ctx, agentType, SubagentSummary(summary))
}

func (t *Tracker) recordSubagent(ctx context.Context, agentType, capped string) error {
	return t.append(ctx, domain.LedgerEntry{
		Kind:     domain.EntrySubagentResult,
		Subagent: &domain.SubagentResult{AgentType: agentType, Summary: capped, RecordedAt: t.stamp()},
	})
}

// AppendLoopMemory appends a free-text note to the loop's memory trail.
func (t *Tracker) AppendLoopMemory(ctx context.Context, note string) error {
	return t.append(ctx, domain.LedgerEntry{
		Kind:   domain.EntryMemory,
		Memory: &domain.MemoryNote{Note: note, RecordedAt: t.stamp()},
	})
}

// Ledger returns the folded view of everything recorded so far.
func (t *Tracker) Ledger(ctx context.Context) (*domain.LoopSession, error) {
	entries, err := t.store.Entries(ctx, t.loopID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger for loop %s: %w", t.loopID, err)
	}
	return domain.FoldLedger(t.loopID, entries), nil
}

func (t *Tracker) append(ctx context.Context, e domain.LedgerEntry) error {
	if err := t.store.Append(ctx, t.loopID, e); err != nil {
		return fmt.Errorf("failed to append %s to loop %s: %w", e.Kind, t.loopID, err)
	}
	t.logger.Debug("ledger entry appended", "loop_id", t.loopID, "kind", e.Kind)
	return nil
}

func (t *Tracker) stamp() time.Time {
	return t.now().UTC()
}

// Observe records whatever the tool call in p says about the loop and returns
// the number of entries appended. Unrecognised tools append nothing.
func (t *Tracker) Observe(ctx context.Context, p hook.Payload, rules Rules) (int, error) {
	// Undecodable tool input leaves the typed views empty.
	switch rules.Classify(p.ToolName) {
	case ToolReplace:
		var args hook.FileEditArgs
		_ = hook.Decode(p.ToolInput, &args)
		return one(t.RecordFileChange(ctx, args.Path(), domain.ChangeModify, ReplaceDetails(args.Old())))

	case ToolWrite:
		var args hook.FileEditArgs
		_ = hook.Decode(p.ToolInput, &args)
		return one(t.RecordFileChange(ctx, args.Path(), domain.ChangeAdd, WriteDetails(args.Content)))

	case ToolShell:
		var args hook.ShellArgs
		_ = hook.Decode(p.ToolInput, &args)
		if args.Command == "" {
			return 0, nil
		}
		return one(t.RecordCommand(ctx, args.Command, IsVerification(args.Command)))

	case ToolTask:
		var args hook.TaskArgs
		_ = hook.Decode(p.ToolInput, &args)
		agent := args.Agent()
		summary := SubagentSummary(p.ResponseText())
		if err := t.recordSubagent(ctx, agent, summary); err != nil {
			return 0, err
		}
		if err := t.AppendLoopMemory(ctx, SubagentNote(agent, summary)); err != nil {
			return 1, err
		}
		return 2, nil
	}
	return 0, nil
}

func one(err error) (int, error) {
	if err != nil {
		return 0, err
	}
	return 1, nil
}
