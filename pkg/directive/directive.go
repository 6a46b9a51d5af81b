package directive

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/gatehook/pkg/domain"
)

var (
	// StepPattern matches the chain position, "step N of M".
	StepPattern = regexp.MustCompile(`(?i)\bstep\s+(\d+)\s+of\s+(\d+)\b`)

	// ChainIDPattern matches a "Chain ID:", "chain_id:" or "Chain:" line.
	ChainIDPattern = regexp.MustCompile(`(?i)^(?:chain[ _]id|chain)\s*:\s*(\S+)`)

	// GatePattern matches a "Gate:" or "Pending Gate:" line.
	GatePattern = regexp.MustCompile(`(?i)^(?:pending[ _])?gate\s*:\s*(.+)$`)

	// CriteriaPattern matches an inline "Criteria: a | b | c" line.
	CriteriaPattern = regexp.MustCompile(`(?i)^criteria\s*:\s*(.+)$`)

	// ListItemPattern matches one criterion listed under a gate line.
	ListItemPattern = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+(.+)$`)

	// ShellVerifyPattern matches a "Shell Verify:" or "pending_shell_verify:" line.
	ShellVerifyPattern = regexp.MustCompile(`(?i)^(?:shell[ _]verify|pending_shell_verify)\s*:\s*(.+)$`)

	// CompletePattern matches a line opening with "Chain complete" or "Chain completed".
	CompletePattern = regexp.MustCompile(`(?i)^chain\s+completed?\b`)
)

// CriteriaSeparator splits an inline criteria line.
const CriteriaSeparator = "|"

// Parse extracts the directives present in text. The boolean is false when the
// text carries none, in which case the caller must leave state untouched.
func Parse(text string) (domain.StateUpdate, bool) {
	var u domain.StateUpdate
	if strings.TrimSpace(text) == "" {
		return u, false
	}

	if m := StepPattern.FindStringSubmatch(text); m != nil {
		step, errStep := strconv.Atoi(m[1])
		total, errTotal := strconv.Atoi(m[2])
		if errStep == nil && errTotal == nil && step > 0 && total >= step {
			u.Step, u.Total = step, total
		}
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		line := clean(lines[i])
		switch {
		case line == "":
		case CompletePattern.MatchString(line):
			u.ChainComplete = true
		case ShellVerifyPattern.MatchString(line):
			if u.ShellVerify == "" {
				u.ShellVerify = value(ShellVerifyPattern, line)
			}
		case GatePattern.MatchString(line):
			if u.Gate != "" {
				continue
			}
			u.Gate = value(GatePattern, line)
			items, consumed := listAfter(lines[i+1:])
			if len(items) > 0 {
				u.Criteria = items
				i += consumed
			}
		case CriteriaPattern.MatchString(line):
			if len(u.Criteria) == 0 {
				u.Criteria = splitCriteria(value(CriteriaPattern, line))
			}
		case ChainIDPattern.MatchString(line):
			if u.ChainID == "" {
				u.ChainID = chainID(line)
			}
		}
	}

	// A position short of the last step outranks a completion line.
	if u.ChainComplete && u.Step > 0 && u.Step < u.Total {
		u.ChainComplete = false
	}

	if u.Gate == "" && u.ShellVerify == "" && u.ChainID == "" && u.Step == 0 && !u.ChainComplete {
		// Criteria without a gate are not a directive.
		return domain.StateUpdate{}, false
	}
	return u, !u.IsEmpty()
}

// listAfter collects the list items directly below a gate line. Blank lines
// between the gate and the first item are skipped.
func listAfter(lines []string) ([]string, int) {
	var items []string
	consumed := 0
	for _, raw := range lines {
		line := clean(raw)
		if line == "" && len(items) == 0 {
			consumed++
			continue
		}
		m := ListItemPattern.FindStringSubmatch(line)
		if m == nil {
			break
		}
		if item := strings.TrimSpace(m[1]); item != "" {
			items = append(items, item)
		}
		consumed++
	}
	if len(items) == 0 {
		return nil, 0
	}
	return items, consumed
}

// chainID returns the value of a chain line, or "" when the line is a progress
// line such as "Chain: Step 2 of 5".
func chainID(line string) string {
	m := ChainIDPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return ""
	}
	if loc := StepPattern.FindStringIndex(line[m[2]:]); loc != nil && loc[0] == 0 {
		return ""
	}
	return value(ChainIDPattern, line)
}

func splitCriteria(s string) []string {
	var out []string
	for _, part := range strings.Split(s, CriteriaSeparator) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func value(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m[1]), "*`")
}

// clean strips surrounding whitespace and markdown emphasis or heading marks,
// so "**Gate:** Review" and "## Gate: Review" read like "Gate: Review".
func clean(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "#> ")
	if strings.HasPrefix(line, "**") {
		line = strings.Replace(strings.TrimPrefix(line, "**"), "**", "", 1)
	}
	return strings.TrimSpace(line)
}
