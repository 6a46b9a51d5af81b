package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/gatehook/internal/logging"
	"github.com/aretw0/gatehook/pkg/directive"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/gate"
	"github.com/aretw0/gatehook/pkg/hook"
	"github.com/aretw0/gatehook/pkg/loop"
	"github.com/aretw0/gatehook/pkg/ports"
	"github.com/aretw0/gatehook/pkg/reminder"
	"github.com/aretw0/gatehook/pkg/session"
)

// Hook names as used on the command line.
const (
	NameGateEnforce  = "gate-enforce"
	NameAfterTool    = "after-tool"
	NameBeforeAgent  = "before-agent"
	NameTrack        = "track"
	NamePreCompact   = "pre-compact"
	NameSessionStart = "session-start"
	NameStop         = "stop"
)

// Outcomes reported to the Recorder.
const (
	OutcomeDeny    = "deny"
	OutcomeContext = "context"
	OutcomeSilent  = "silent"
	OutcomeError   = "error"
)

// DefaultMemoryNotes is how many loop-memory notes pre-compact re-injects.
const DefaultMemoryNotes = 5

// HandlerFunc handles one hook payload.
type HandlerFunc func(ctx context.Context, p hook.Payload) (hook.Output, error)

// Recorder receives hook telemetry. It may be nil.
type Recorder interface {
	ObserveHook(name, outcome string, elapsed time.Duration)
	ObserveGate(outcome string)
	ObserveLedger(kind string, n int)
}

// Hooks holds the collaborators shared by all handlers.
type Hooks struct {
	sessions    *session.Manager
	ledger      ports.LedgerStore
	loops       ports.ActiveLoopSource
	catalog     Catalog
	policy      gate.Policy
	rules       loop.Rules
	memoryNotes int
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures Hooks.
type Option func(*Hooks)

// WithLedger enables loop tracking. Without it the loop hooks are silent.
func WithLedger(ledger ports.LedgerStore, loops ports.ActiveLoopSource) Option {
	return func(h *Hooks) {
		h.ledger = ledger
		h.loops = loops
	}
}

// WithCatalog sets the prompt catalog used by before-agent.
func WithCatalog(c Catalog) Option {
	return func(h *Hooks) {
		h.catalog = c
	}
}

// WithPolicy sets the gate policy.
func WithPolicy(p gate.Policy) Option {
	return func(h *Hooks) {
		h.policy = p
	}
}

// WithRules sets the tool classification of the tracker.
func WithRules(r loop.Rules) Option {
	return func(h *Hooks) {
		h.rules = r
	}
}

// WithMemoryNotes sets how many notes pre-compact re-injects.
func WithMemoryNotes(n int) Option {
	return func(h *Hooks) {
		if n > 0 {
			h.memoryNotes = n
		}
	}
}

// WithRecorder sets the telemetry sink.
func WithRecorder(r Recorder) Option {
	return func(h *Hooks) {
		h.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hooks) {
		h.logger = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Hooks) {
		h.now = now
	}
}

// New creates the hook set over a session manager.
func New(sessions *session.Manager, opts ...Option) *Hooks {
	h := &Hooks{
		sessions:    sessions,
		policy:      gate.DefaultPolicy(),
		rules:       loop.DefaultRules(),
		memoryNotes: DefaultMemoryNotes,
		logger:      logging.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Lookup returns the handler registered under name.
func (h *Hooks) Lookup(name string) (HandlerFunc, bool) {
	fn, ok := h.handlers()[name]
	return fn, ok
}

// Names lists the registered hooks, sorted.
func Names() []string {
	names := make([]string, 0, 7)
	for name := range (&Hooks{}).handlers() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered hook.
func Known(name string) bool {
	_, ok := (&Hooks{}).handlers()[name]
	return ok
}

func (h *Hooks) handlers() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		NameGateEnforce:  h.GateEnforce,
		NameAfterTool:    h.AfterTool,
		NameBeforeAgent:  h.BeforeAgent,
		NameTrack:        h.Track,
		NamePreCompact:   h.PreCompact,
		NameSessionStart: h.SessionStart,
		NameStop:         h.Stop,
	}
}

// Run dispatches p to the named hook and records the outcome. Handler errors
// are logged and turned into an empty output.
func (h *Hooks) Run(ctx context.Context, name string, p hook.Payload) (hook.Output, error) {
	fn, ok := h.Lookup(name)
	if !ok {
		return hook.Output{}, fmt.Errorf("unknown hook %q (known: %s)", name, strings.Join(Names(), ", "))
	}

	start := h.now()
	out, err := fn(ctx, p)
	outcome := outcomeOf(out)
	if err != nil {
		h.logger.Error("hook failed", "hook", name, "session_id", p.SessionID, "err", err)
		out, outcome = hook.Output{}, OutcomeError
	}
	if h.recorder != nil {
		h.recorder.ObserveHook(name, outcome, h.now().Sub(start))
	}
	h.logger.Debug("hook handled", "hook", name, "tool", p.ToolName, "session_id", p.SessionID, "outcome", outcome)
	return out, nil
}

func outcomeOf(out hook.Output) string {
	switch {
	case out.Denied():
		return OutcomeDeny
	case out.IsEmpty():
		return OutcomeSilent
	default:
		return OutcomeContext
	}
}

// GateEnforce denies governed calls that submit a FAIL verdict, or that resume
// the chain without a PASS while a gate is pending.
func (h *Hooks) GateEnforce(ctx context.Context, p hook.Payload) (hook.Output, error) {
	action := gate.ActionFromPayload(p)
	if !h.policy.Governs(action.ToolName) {
		return hook.Output{}, nil
	}

	state, _ := h.sessions.Load(ctx, p.SessionID)
	d := h.policy.Enforce(action, state)
	if h.recorder != nil {
		h.recorder.ObserveGate(d.Outcome.String())
	}
	if d.Allowed() {
		return hook.Output{}, nil
	}

	if d.Failures > 0 {
		h.countFailure(ctx, p.SessionID, state.PendingGate)
	}
	h.logger.Info("gate denied", "session_id", p.SessionID, "outcome", d.Outcome.String(), "reason", d.Reason)
	return hook.Deny(d.Reason), nil
}

// countFailure persists one more FAIL against gateName, best-effort.
func (h *Hooks) countFailure(ctx context.Context, sessionID, gateName string) {
	_, err := h.sessions.Update(ctx, sessionID, func(prev *domain.SessionState) (*domain.SessionState, error) {
		if prev == nil || prev.PendingGate != gateName {
			return nil, nil
		}
		next := prev.Clone()
		next.GateFailures++
		next.UpdatedAt = h.now().UTC()
		return next, nil
	})
	if err != nil {
		h.logger.Warn("failed to record gate failure", "session_id", sessionID, "err", err)
	}
}

// AfterTool folds the directives of a prompt-tool response into the session
// state and reminds the agent of what is pending.
func (h *Hooks) AfterTool(ctx context.Context, p hook.Payload) (hook.Output, error) {
	if !h.policy.Governs(p.ToolName) {
		return hook.Output{}, nil
	}
	u, ok := directive.Parse(p.ResponseText())
	if !ok {
		return hook.Output{}, nil
	}

	var args hook.PromptEngineArgs
	_ = hook.Decode(p.ToolInput, &args)
	if args.ChainID != "" {
		u.ChainID = args.ChainID
	}
	passed := gate.ParseVerdict(args.GateVerdict).Kind == gate.VerdictPass

	var next *domain.SessionState
	apply := func(prev *domain.SessionState) (*domain.SessionState, error) {
		next = domain.ApplyUpdate(prev, p.SessionID, u, passed, h.now())
		return next, nil
	}
	if p.SessionID == "" {
		_, _ = apply(nil)
	} else if _, err := h.sessions.Update(ctx, p.SessionID, apply); err != nil {
		// The reminder still reflects this response; only persistence is lost.
		h.logger.Warn("session state not saved", "session_id", p.SessionID, "err", err)
		if next == nil {
			_, _ = apply(nil)
		}
	}
	return hook.Context(hook.EventAfterTool, reminder.Format(next)), nil
}

// BeforeAgent reminds the agent of pending state and expands prompt
// invocations, chains and inline gates typed by the user.
func (h *Hooks) BeforeAgent(ctx context.Context, p hook.Payload) (hook.Output, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return hook.Output{}, nil
	}
	text := reminder.Join(
		h.sessionReminder(ctx, p.SessionID),
		strings.Join(invocationLines(p.Prompt, h.catalog), "\n"),
	)
	return hook.Context(hook.EventBeforeAgent, text), nil
}

// Track appends the tool call to the active loop's ledger. It never answers.
func (h *Hooks) Track(ctx context.Context, p hook.Payload) (hook.Output, error) {
	tracker, ok := h.activeTracker(ctx)
	if !ok {
		return hook.Output{}, nil
	}
	n, err := tracker.Observe(ctx, p, h.rules)
	if err != nil {
		return hook.Output{}, fmt.Errorf("track %s: %w", p.ToolName, err)
	}
	if h.recorder != nil && n > 0 {
		h.recorder.ObserveLedger(kindOf(h.rules.Classify(p.ToolName)), n)
	}
	return hook.Output{}, nil
}

func kindOf(k loop.ToolKind) string {
	switch k {
	case loop.ToolReplace, loop.ToolWrite:
		return string(domain.EntryFileChange)
	case loop.ToolShell:
		return string(domain.EntryCommand)
	case loop.ToolTask:
		return string(domain.EntrySubagentResult)
	default:
		return "other"
	}
}

// PreCompact re-injects the reminder and the most recent loop memory, which
// would otherwise be lost with the compacted context.
func (h *Hooks) PreCompact(ctx context.Context, p hook.Payload) (hook.Output, error) {
	memory := ""
	if tracker, ok := h.activeTracker(ctx); ok {
		ls, err := tracker.Ledger(ctx)
		if err != nil {
			h.logger.Warn("loop ledger unreadable", "loop_id", tracker.LoopID(), "err", err)
		} else {
			memory = reminder.FormatLoopMemory(ls, h.memoryNotes)
		}
	}
	text := reminder.Join(h.sessionReminder(ctx, p.SessionID), memory)
	return hook.Context(hook.EventPreCompact, text), nil
}

// SessionStart reminds a resumed session of its pending gate or chain.
func (h *Hooks) SessionStart(ctx context.Context, p hook.Payload) (hook.Output, error) {
	return hook.Context(hook.EventSessionStart, h.sessionReminder(ctx, p.SessionID)), nil
}

// Stop leaves a summary of the loop's ledger in its memory trail and repeats
// the reminder if anything is still pending.
func (h *Hooks) Stop(ctx context.Context, p hook.Payload) (hook.Output, error) {
	if tracker, ok := h.activeTracker(ctx); ok {
		if err := h.noteStop(ctx, tracker); err != nil {
			h.logger.Warn("stop note not recorded", "loop_id", tracker.LoopID(), "err", err)
		}
	}
	return hook.Context(hook.EventStop, h.sessionReminder(ctx, p.SessionID)), nil
}

func (h *Hooks) noteStop(ctx context.Context, tracker *loop.Tracker) error {
	ls, err := tracker.Ledger(ctx)
	if err != nil {
		return err
	}
	return tracker.AppendLoopMemory(ctx, StopNote(ls))
}

// StopNote summarises a ledger when the agent stops.
func StopNote(ls *domain.LoopSession) string {
	return fmt.Sprintf("Session stopped: %d file changes, %d commands (%d verification), %d sub-agent results.",
		len(ls.FileChanges), len(ls.Commands), ls.VerificationCount(), len(ls.SubagentResults))
}

func (h *Hooks) sessionReminder(ctx context.Context, sessionID string) string {
	state, ok := h.sessions.Load(ctx, sessionID)
	if !ok {
		return ""
	}
	return reminder.Format(state)
}

func (h *Hooks) activeTracker(ctx context.Context) (*loop.Tracker, bool) {
	if h.ledger == nil || h.loops == nil {
		return nil, false
	}
	t, err := loop.Active(ctx, h.loops, h.ledger, loop.WithLogger(h.logger), loop.WithClock(h.now))
	if err != nil {
		return nil, false
	}
	return t, true
}
