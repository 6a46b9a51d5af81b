package domain

// Truncation limits shared by the hooks. They are part of the contract with the
// agent reading the output, so they are fixed rather than configurable.
const (
	// MaxFailReasonLen caps the FAIL reason quoted back in a gate denial.
	MaxFailReasonLen = 50

	// MaxCriterionLen caps each gate criterion rendered in a reminder.
	MaxCriterionLen = 40

	// MaxCriteriaShown is the number of criteria rendered in a reminder.
	MaxCriteriaShown = 3

	// MaxSubagentSummaryLen caps a recorded sub-agent summary.
	MaxSubagentSummaryLen = 500

	// MaxCommandSummaryLen caps a recorded command summary.
	MaxCommandSummaryLen = 100

	// MaxReplacePreviewLen caps the replaced-text preview in a file change.
	MaxReplacePreviewLen = 50

	// TruncationMarker is appended to any value cut by the limits above
	// (except the FAIL reason, which is quoted as-is).
	TruncationMarker = "..."
)

// Truncate returns s cut to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// TruncateMarked returns s cut to n runes followed by TruncationMarker when it was longer.
func TruncateMarked(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return Truncate(s, n) + TruncationMarker
}
