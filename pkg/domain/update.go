package domain

import (
	"slices"
	"time"
)

// StateUpdate is a partial SessionState extracted from a tool response.
// Only the fields the response actually encodes are set.
type StateUpdate struct {
	ChainID       string
	Step          int
	Total         int
	Gate          string
	Criteria      []string
	ShellVerify   string
	ChainComplete bool
}

// IsEmpty reports whether the update carries no directive at all.
func (u StateUpdate) IsEmpty() bool {
	return u.ChainID == "" &&
		u.Step == 0 &&
		u.Total == 0 &&
		u.Gate == "" &&
		len(u.Criteria) == 0 &&
		u.ShellVerify == "" &&
		!u.ChainComplete
}

// ApplyUpdate merges an update into the previous record and returns the complete
// record to save. prev may be nil (first write for the session). gatePassed is true
// when the action that produced the update carried a PASS verdict.
//
// Rules, in order:
//   - a chain ID different from the stored one starts a fresh record;
//   - a completed chain resets the record to "no active chain", unless the
//     same update places the chain short of its last step;
//   - a PASS verdict or an advancing step clears the pending gate;
//   - a step lower than the stored one within the same chain is ignored;
//   - gate, criteria and verification fields present in the update overwrite.
func ApplyUpdate(prev *SessionState, sessionID string, u StateUpdate, gatePassed bool, now time.Time) *SessionState {
	next := prev.Clone()
	if next == nil {
		next = NewSessionState(sessionID)
	}
	next.SessionID = sessionID

	if u.ChainID != "" && next.ChainID != "" && u.ChainID != next.ChainID {
		next = NewSessionState(sessionID)
	}
	if u.ChainID != "" {
		next.ChainID = u.ChainID
	}

	if u.ChainComplete && (u.Step == 0 || u.Step >= u.Total) {
		next.resetChain()
		next.UpdatedAt = now.UTC()
		return next
	}

	advancing := u.Step > next.CurrentStep && next.CurrentStep > 0
	if gatePassed || advancing {
		next.clearGate()
	}

	if u.Step > 0 && u.Step >= next.CurrentStep {
		if u.Step != next.CurrentStep {
			next.PendingShellVerify = ""
		}
		next.CurrentStep = u.Step
	}
	if u.Total > 0 {
		next.TotalSteps = u.Total
	}

	if u.Gate != "" {
		if u.Gate != next.PendingGate {
			next.GateFailures = 0
		}
		next.PendingGate = u.Gate
		next.GateCriteria = slices.Clone(u.Criteria)
	} else if len(u.Criteria) > 0 && next.PendingGate != "" {
		next.GateCriteria = slices.Clone(u.Criteria)
	}

	if u.ShellVerify != "" {
		next.PendingShellVerify = u.ShellVerify
	}

	next.UpdatedAt = now.UTC()
	return next
}
