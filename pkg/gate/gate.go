package gate

import (
	"fmt"
	"strings"

	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/hook"
)

// DefaultTool is the governed prompt tool.
const DefaultTool = "prompt_engine"

// Reason formats. They are read by the agent and kept stable.
const (
	failFormat       = "Gate FAIL: %s. Improve and retry with PASS."
	pendingFormat    = "Gate pending: %s. Submit gate_verdict first."
	retryLimitFormat = " Retry limit (%d) reached; escalate to the user before retrying."
)

// Action is a proposed call, reduced to what enforcement looks at.
type Action struct {
	ToolName  string
	SessionID string
	ChainID   string
	Verdict   string
}

// ActionFromPayload reads the action out of a BeforeTool payload.
func ActionFromPayload(p hook.Payload) Action {
	var args hook.PromptEngineArgs
	// Undecodable parameters are treated as absent.
	_ = hook.Decode(p.ToolInput, &args)
	return Action{
		ToolName:  p.ToolName,
		SessionID: p.SessionID,
		ChainID:   args.ChainID,
		Verdict:   args.GateVerdict,
	}
}

// Outcome is the kind of decision.
type Outcome int

const (
	Allow Outcome = iota
	DenyFail
	DenyPending
)

func (o Outcome) String() string {
	switch o {
	case DenyFail:
		return "deny_fail"
	case DenyPending:
		return "deny_pending"
	default:
		return "allow"
	}
}

// Decision is the result of Enforce.
type Decision struct {
	Outcome Outcome
	Reason  string
	Verdict Verdict
	// Failures is the FAIL count for the pending gate including this verdict.
	// It is zero unless the verdict failed against a pending gate.
	Failures int
}

// Allowed reports whether the action may run.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Policy configures enforcement.
type Policy struct {
	// Tool is matched as a substring of the tool name.
	Tool string
	// MaxFailRetries, when positive, marks FAIL denials that reach this many
	// failures against the same gate for escalation. Zero leaves retries unbounded.
	MaxFailRetries int
}

// DefaultPolicy governs DefaultTool with unbounded retries.
func DefaultPolicy() Policy {
	return Policy{Tool: DefaultTool}
}

// Governs reports whether the tool is subject to enforcement.
func (p Policy) Governs(toolName string) bool {
	tool := p.Tool
	if tool == "" {
		tool = DefaultTool
	}
	return toolName != "" && strings.Contains(toolName, tool)
}

// Enforce decides a. state may be nil when the session has no record.
//
// A FAIL verdict is checked first, so it is reported as a failure rather than
// as a missing verdict. A malformed verdict counts as no verdict.
func (p Policy) Enforce(a Action, state *domain.SessionState) Decision {
	if !p.Governs(a.ToolName) {
		return Decision{Outcome: Allow}
	}

	v := ParseVerdict(a.Verdict)
	if v.Kind == VerdictFail {
		d := Decision{Outcome: DenyFail, Verdict: v, Reason: fmt.Sprintf(failFormat, v.Reason)}
		if state.HasPendingGate() {
			d.Failures = state.GateFailures + 1
			if p.MaxFailRetries > 0 && d.Failures >= p.MaxFailRetries {
				d.Reason += fmt.Sprintf(retryLimitFormat, p.MaxFailRetries)
			}
		}
		return d
	}

	if a.ChainID != "" && v.Kind != VerdictPass && state.HasPendingGate() {
		return Decision{
			Outcome: DenyPending,
			Verdict: v,
			Reason:  fmt.Sprintf(pendingFormat, state.PendingGate),
		}
	}
	return Decision{Outcome: Allow, Verdict: v}
}
