// Package reminder renders session state into the short nudge injected into the
// agent's next turn.
package reminder

import (
	"fmt"
	"strings"

	"github.com/aretw0/gatehook/pkg/domain"
)

const (
	gateFormat    = "[Gate] %s"
	respondLine   = "  Respond: GATE_REVIEW: PASS|FAIL - <reason>"
	checkFormat   = "  Check: %s"
	chainFormat   = "[Chain] Step %d/%d - call prompt_engine to continue"
	memoryHeader  = "[Loop Memory]"
	memoryFormat  = "  - %s"
	criteriaSep   = " | "
	lineSeparator = "\n"
)

// Format renders the pending gate, then the chain position when steps remain.
// It returns "" when there is nothing to remind, which callers must treat as
// "emit nothing". A nil state formats to "".
func Format(state *domain.SessionState) string {
	if state == nil {
		return ""
	}
	var lines []string
	if state.HasPendingGate() {
		lines = append(lines, fmt.Sprintf(gateFormat, state.PendingGate), respondLine)
		if c := Criteria(state.GateCriteria); c != "" {
			lines = append(lines, fmt.Sprintf(checkFormat, c))
		}
	}
	if state.ChainUnfinished() {
		lines = append(lines, fmt.Sprintf(chainFormat, state.CurrentStep, state.TotalSteps))
	}
	return strings.Join(lines, lineSeparator)
}

// Criteria joins the first domain.MaxCriteriaShown criteria, each cut to
// domain.MaxCriterionLen runes.
func Criteria(criteria []string) string {
	if len(criteria) > domain.MaxCriteriaShown {
		criteria = criteria[:domain.MaxCriteriaShown]
	}
	parts := make([]string, 0, len(criteria))
	for _, c := range criteria {
		parts = append(parts, domain.Truncate(c, domain.MaxCriterionLen))
	}
	return strings.Join(parts, criteriaSep)
}

// FormatLoopMemory renders the last n loop-memory notes, oldest first.
func FormatLoopMemory(ledger *domain.LoopSession, n int) string {
	if ledger == nil {
		return ""
	}
	notes := ledger.MemoryTail(n)
	if len(notes) == 0 {
		return ""
	}
	lines := []string{memoryHeader}
	for _, note := range notes {
		lines = append(lines, fmt.Sprintf(memoryFormat, note.Note))
	}
	return strings.Join(lines, lineSeparator)
}

// Join concatenates non-empty blocks separated by a blank line.
func Join(blocks ...string) string {
	kept := blocks[:0:0]
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, lineSeparator+lineSeparator)
}
