package domain

import "time"

// ChangeType classifies a recorded file change.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeModify ChangeType = "modify"
)

// EntryKind discriminates the entries of a loop ledger.
type EntryKind string

const (
	EntryFileChange     EntryKind = "file_change"
	EntryCommand        EntryKind = "command"
	EntrySubagentResult EntryKind = "subagent_result"
	EntryMemory         EntryKind = "loop_memory"
)

// FileChange records a file written or edited during a loop.
type FileChange struct {
	File       string     `json:"file"`
	ChangeType ChangeType `json:"change_type"`
	Details    string     `json:"details"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// CommandRecord records a shell command observed during a loop.
// IsVerification marks commands a later verification step should look at.
type CommandRecord struct {
	Command        string    `json:"command"`
	IsVerification bool      `json:"is_verification"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// SubagentResult records the summary returned by a delegated sub-task.
type SubagentResult struct {
	AgentType  string    `json:"agent_type"`
	Summary    string    `json:"summary"`
	RecordedAt time.Time `json:"recorded_at"`
}

// MemoryNote is one free-text note of the loop's rolling memory trail.
type MemoryNote struct {
	Note       string    `json:"note"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LedgerEntry is the unit appended to a loop ledger. Exactly one payload field
// is set, matching Kind.
type LedgerEntry struct {
	Kind       EntryKind       `json:"kind"`
	FileChange *FileChange     `json:"file_change,omitempty"`
	Command    *CommandRecord  `json:"command,omitempty"`
	Subagent   *SubagentResult `json:"subagent_result,omitempty"`
	Memory     *MemoryNote     `json:"loop_memory,omitempty"`
}

// Valid reports whether the payload matching Kind is present.
func (e LedgerEntry) Valid() bool {
	switch e.Kind {
	case EntryFileChange:
		return e.FileChange != nil
	case EntryCommand:
		return e.Command != nil
	case EntrySubagentResult:
		return e.Subagent != nil
	case EntryMemory:
		return e.Memory != nil
	default:
		return false
	}
}

// LoopSession is the folded, insertion-ordered view of a loop ledger.
type LoopSession struct {
	LoopID          string           `json:"loop_id"`
	FileChanges     []FileChange     `json:"file_changes"`
	Commands        []CommandRecord  `json:"commands"`
	SubagentResults []SubagentResult `json:"subagent_results"`
	LoopMemory      []MemoryNote     `json:"loop_memory"`
}

// FoldLedger builds the LoopSession view from entries in append order.
// Invalid entries are skipped.
func FoldLedger(loopID string, entries []LedgerEntry) *LoopSession {
	ls := &LoopSession{
		LoopID:          loopID,
		FileChanges:     []FileChange{},
		Commands:        []CommandRecord{},
		SubagentResults: []SubagentResult{},
		LoopMemory:      []MemoryNote{},
	}
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		switch e.Kind {
		case EntryFileChange:
			ls.FileChanges = append(ls.FileChanges, *e.FileChange)
		case EntryCommand:
			ls.Commands = append(ls.Commands, *e.Command)
		case EntrySubagentResult:
			ls.SubagentResults = append(ls.SubagentResults, *e.Subagent)
		case EntryMemory:
			ls.LoopMemory = append(ls.LoopMemory, *e.Memory)
		}
	}
	return ls
}

// VerificationCount returns the number of verification-classified commands.
func (l *LoopSession) VerificationCount() int {
	n := 0
	for _, c := range l.Commands {
		if c.IsVerification {
			n++
		}
	}
	return n
}

// MemoryTail returns the last n memory notes, oldest first.
func (l *LoopSession) MemoryTail(n int) []MemoryNote {
	if n <= 0 || len(l.LoopMemory) == 0 {
		return nil
	}
	if n > len(l.LoopMemory) {
		n = len(l.LoopMemory)
	}
	return l.LoopMemory[len(l.LoopMemory)-n:]
}
