package reminder_test

import (
	"strings"
	"testing"

	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/reminder"
	"github.com/stretchr/testify/assert"
)

func TestFormat_Empty(t *testing.T) {
	assert.Empty(t, reminder.Format(nil))
	assert.Empty(t, reminder.Format(domain.NewSessionState("s1")))
}

func TestFormat_ChainInProgress(t *testing.T) {
	s := &domain.SessionState{SessionID: "s1", ChainID: "c1", CurrentStep: 2, TotalSteps: 5}
	assert.Equal(t, "[Chain] Step 2/5 - call prompt_engine to continue", reminder.Format(s))
}

func TestFormat_FinalStepKeepsGateLine(t *testing.T) {
	s := &domain.SessionState{SessionID: "s1", CurrentStep: 5, TotalSteps: 5}
	assert.Empty(t, reminder.Format(s))

	s.PendingGate = "Release"
	got := reminder.Format(s)
	assert.Equal(t, "[Gate] Release\n  Respond: GATE_REVIEW: PASS|FAIL - <reason>", got)
	assert.NotContains(t, got, "[Chain]")
}

func TestFormat_GateBeforeChain(t *testing.T) {
	s := &domain.SessionState{
		SessionID:    "s1",
		CurrentStep:  1,
		TotalSteps:   3,
		PendingGate:  "Review",
		GateCriteria: []string{"a", strings.Repeat("b", 45), "c", "d"},
	}
	want := strings.Join([]string{
		"[Gate] Review",
		"  Respond: GATE_REVIEW: PASS|FAIL - <reason>",
		"  Check: a | " + strings.Repeat("b", 40) + " | c",
		"[Chain] Step 1/3 - call prompt_engine to continue",
	}, "\n")
	assert.Equal(t, want, reminder.Format(s))
}

func TestFormatLoopMemory(t *testing.T) {
	assert.Empty(t, reminder.FormatLoopMemory(nil, 5))

	ls := domain.FoldLedger("loop-1", []domain.LedgerEntry{
		{Kind: domain.EntryMemory, Memory: &domain.MemoryNote{Note: "one"}},
		{Kind: domain.EntryMemory, Memory: &domain.MemoryNote{Note: "two"}},
		{Kind: domain.EntryMemory, Memory: &domain.MemoryNote{Note: "three"}},
	})
	assert.Equal(t, "[Loop Memory]\n  - two\n  - three", reminder.FormatLoopMemory(ls, 2))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a\n\nb", reminder.Join("", "a", "", "b"))
	assert.Empty(t, reminder.Join())
}
