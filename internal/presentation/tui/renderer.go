package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/reminder"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a usable style it returns the markdown unchanged.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// SessionMarkdown describes a session record and the reminder it produces.
func SessionMarkdown(state *domain.SessionState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session `%s`\n\n", state.SessionID)

	b.WriteString("| | |\n|---|---|\n")
	if state.HasActiveChain() {
		fmt.Fprintf(&b, "| Chain | `%s` |\n", orDash(state.ChainID))
		fmt.Fprintf(&b, "| Step | %d of %d |\n", state.CurrentStep, state.TotalSteps)
	} else {
		b.WriteString("| Chain | - |\n")
	}
	fmt.Fprintf(&b, "| Pending gate | %s |\n", orDash(state.PendingGate))
	if state.GateFailures > 0 {
		fmt.Fprintf(&b, "| Gate failures | %d |\n", state.GateFailures)
	}
	if state.PendingShellVerify != "" {
		fmt.Fprintf(&b, "| Shell verify | `%s` |\n", state.PendingShellVerify)
	}
	if !state.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "| Updated | %s |\n", state.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}

	if len(state.GateCriteria) > 0 {
		b.WriteString("\n## Criteria\n\n")
		for _, c := range state.GateCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	if r := reminder.Format(state); r != "" {
		b.WriteString("\n## Reminder\n\n```\n")
		b.WriteString(r)
		b.WriteString("\n```\n")
	}
	return b.String()
}

// LoopMarkdown summarises a loop ledger with its last n memory notes.
func LoopMarkdown(ls *domain.LoopSession, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Loop `%s`\n\n", ls.LoopID)
	fmt.Fprintf(&b, "- **%d** file changes\n", len(ls.FileChanges))
	fmt.Fprintf(&b, "- **%d** commands (%d verification)\n", len(ls.Commands), ls.VerificationCount())
	fmt.Fprintf(&b, "- **%d** sub-agent results\n", len(ls.SubagentResults))

	if len(ls.FileChanges) > 0 {
		b.WriteString("\n## Files\n\n")
		for _, fc := range ls.FileChanges {
			fmt.Fprintf(&b, "- `%s` %s\n", fc.File, fc.ChangeType)
		}
	}
	if len(ls.Commands) > 0 {
		b.WriteString("\n## Commands\n\n")
		for _, c := range ls.Commands {
			mark := ""
			if c.IsVerification {
				mark = " *(verification)*"
			}
			fmt.Fprintf(&b, "- `%s`%s\n", c.Command, mark)
		}
	}
	if notes := ls.MemoryTail(n); len(notes) > 0 {
		b.WriteString("\n## Memory\n\n")
		for _, note := range notes {
			fmt.Fprintf(&b, "- %s\n", note.Note)
		}
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
