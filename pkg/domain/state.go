package domain

import (
	"slices"
	"time"
)

// SessionState is the persisted chain and gate record of one agent session.
// It is always saved whole: writers load it, apply an update and save the result.
type SessionState struct {
	// SessionID is the opaque key the record is stored under.
	SessionID string `json:"session_id"`

	// ChainID identifies the active multi-step chain, if any.
	ChainID string `json:"chain_id,omitempty"`

	// CurrentStep is the 1-based position in the chain. Zero means no active chain.
	CurrentStep int `json:"current_step"`

	// TotalSteps is the length of the active chain.
	TotalSteps int `json:"total_steps"`

	// PendingGate names the approval gate awaiting a verdict.
	PendingGate string `json:"pending_gate,omitempty"`

	// GateCriteria are the short criteria attached to PendingGate, in order.
	GateCriteria []string `json:"gate_criteria,omitempty"`

	// PendingShellVerify holds the verification command whose output is awaited.
	PendingShellVerify string `json:"pending_shell_verify,omitempty"`

	// GateFailures counts FAIL verdicts submitted against PendingGate.
	GateFailures int `json:"gate_failures,omitempty"`

	// UpdatedAt is the time of the last write.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionState creates an empty record for a session: no chain, no gate.
func NewSessionState(sessionID string) *SessionState {
	return &SessionState{SessionID: sessionID}
}

// HasPendingGate reports whether a gate is awaiting a verdict.
func (s *SessionState) HasPendingGate() bool {
	return s != nil && s.PendingGate != ""
}

// HasActiveChain reports whether the record tracks a chain position.
func (s *SessionState) HasActiveChain() bool {
	return s != nil && s.CurrentStep > 0
}

// ChainUnfinished reports whether there are steps left after the current one.
func (s *SessionState) ChainUnfinished() bool {
	return s != nil && s.CurrentStep > 0 && s.CurrentStep < s.TotalSteps
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	c := *s
	c.GateCriteria = slices.Clone(s.GateCriteria)
	return &c
}

// clearGate drops the pending gate together with everything scoped to it.
func (s *SessionState) clearGate() {
	s.PendingGate = ""
	s.GateCriteria = nil
	s.GateFailures = 0
}

// resetChain returns the record to "no active chain".
func (s *SessionState) resetChain() {
	s.ChainID = ""
	s.CurrentStep = 0
	s.TotalSteps = 0
	s.PendingShellVerify = ""
	s.clearGate()
}
