package hook

import (
	"encoding/json"
	"fmt"
	"io"
)

// Lifecycle event names used in context envelopes.
const (
	EventBeforeTool   = "BeforeTool"
	EventAfterTool    = "AfterTool"
	EventBeforeAgent  = "BeforeAgent"
	EventPreCompact   = "PreCompact"
	EventSessionStart = "SessionStart"
	EventStop         = "Stop"
)

// DecisionDeny is the only decision a hook ever emits; allowing is silence.
const DecisionDeny = "deny"

// Output is the single JSON object a hook may print. The zero value prints nothing.
type Output struct {
	Decision           string          `json:"decision,omitempty"`
	Reason             string          `json:"reason,omitempty"`
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// SpecificOutput carries supplementary context for the agent.
type SpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// Deny blocks the pending action with a reason.
func Deny(reason string) Output {
	return Output{Decision: DecisionDeny, Reason: reason}
}

// Context attaches text for the agent's next turn. Empty text yields an empty Output.
func Context(event, text string) Output {
	if text == "" {
		return Output{}
	}
	return Output{HookSpecificOutput: &SpecificOutput{HookEventName: event, AdditionalContext: text}}
}

// IsEmpty reports whether there is nothing to print.
func (o Output) IsEmpty() bool {
	return o.Decision == "" && o.HookSpecificOutput == nil
}

// Denied reports whether the output blocks the action.
func (o Output) Denied() bool {
	return o.Decision == DecisionDeny
}

// Write prints the output as one JSON line, or nothing when it is empty.
func Write(w io.Writer, o Output) error {
	if o.IsEmpty() {
		return nil
	}
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal hook output: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write hook output: %w", err)
	}
	return nil
}
