package loop

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/gatehook/pkg/domain"
)

// VerificationKeywords mark a shell command as a verification run when any of
// them appears in the lowercased command.
var VerificationKeywords = []string{"test", "npm run", "yarn", "pytest", "cargo test", "go test", "make"}

// IsVerification reports whether command looks like a test or build target run.
func IsVerification(command string) bool {
	lower := strings.ToLower(command)
	for _, kw := range VerificationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CommandSummary caps a command for the ledger.
func CommandSummary(command string) string {
	return domain.TruncateMarked(command, domain.MaxCommandSummaryLen)
}

// SubagentSummary caps a sub-task result for the ledger.
func SubagentSummary(text string) string {
	if strings.TrimSpace(text) == "" {
		return NoResponse
	}
	return domain.TruncateMarked(text, domain.MaxSubagentSummaryLen)
}

// NoResponse is recorded when a sub-task returned nothing.
const NoResponse = "No response captured."

// ReplaceDetails describes an in-place edit by a preview of the replaced text.
func ReplaceDetails(old string) string {
	return "Replace: " + domain.Truncate(old, domain.MaxReplacePreviewLen) + domain.TruncationMarker
}

// WriteDetails describes a whole-file write by its size in characters.
func WriteDetails(content string) string {
	return fmt.Sprintf("Write: %d chars", utf8.RuneCountInString(content))
}

// SubagentNote is the loop-memory note left by a finished sub-task.
func SubagentNote(agentType, summary string) string {
	return fmt.Sprintf("Sub-agent `%s` completed: %s", agentType, summary)
}

// ToolKind is the category of an observed tool call.
type ToolKind int

const (
	ToolOther ToolKind = iota
	ToolReplace
	ToolWrite
	ToolShell
	ToolTask
)

// Rules map tool names to kinds by substring. Matching is case-insensitive and
// the first kind with a matching substring wins, in the field order below.
type Rules struct {
	Replace []string `yaml:"replace"`
	Write   []string `yaml:"write"`
	Shell   []string `yaml:"shell"`
	Task    []string `yaml:"task"`
}

// DefaultRules recognises the common agent tool names.
func DefaultRules() Rules {
	return Rules{
		Replace: []string{"replace", "edit"},
		Write:   []string{"write_file"},
		Shell:   []string{"bash", "shell"},
		Task:    []string{"task"},
	}
}

// Classify returns the kind of the named tool.
func (r Rules) Classify(toolName string) ToolKind {
	name := strings.ToLower(toolName)
	if name == "" {
		return ToolOther
	}
	switch {
	case containsAny(name, r.Replace):
		return ToolReplace
	case containsAny(name, r.Write):
		return ToolWrite
	case containsAny(name, r.Shell):
		return ToolShell
	case containsAny(name, r.Task):
		return ToolTask
	default:
		return ToolOther
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
