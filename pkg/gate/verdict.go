package gate

import (
	"regexp"
	"strings"

	"github.com/aretw0/gatehook/pkg/domain"
)

// VerdictPattern is the verdict grammar, matched anywhere in the submitted text.
var VerdictPattern = regexp.MustCompile(`(?i)GATE_REVIEW:\s*(PASS|FAIL)(?:\s*[-:]\s*(.+))?`)

// UnspecifiedReason stands in for a FAIL verdict submitted without a reason.
const UnspecifiedReason = "unspecified"

// VerdictKind classifies a submitted verdict.
type VerdictKind int

const (
	VerdictNone VerdictKind = iota
	VerdictPass
	VerdictFail
	VerdictMalformed
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictPass:
		return "pass"
	case VerdictFail:
		return "fail"
	case VerdictMalformed:
		return "malformed"
	default:
		return "none"
	}
}

// Verdict is a parsed gate verdict. It is never stored.
type Verdict struct {
	Kind VerdictKind
	// Reason is the FAIL reason, trimmed and cut to domain.MaxFailReasonLen runes.
	Reason string
}

// ParseVerdict classifies s. Empty input is VerdictNone; text that does not
// follow the grammar is VerdictMalformed.
func ParseVerdict(s string) Verdict {
	if strings.TrimSpace(s) == "" {
		return Verdict{Kind: VerdictNone}
	}
	m := VerdictPattern.FindStringSubmatch(s)
	if m == nil {
		return Verdict{Kind: VerdictMalformed}
	}
	if strings.EqualFold(m[1], "PASS") {
		return Verdict{Kind: VerdictPass, Reason: strings.TrimSpace(m[2])}
	}
	reason := strings.TrimSpace(m[2])
	if reason == "" {
		reason = UnspecifiedReason
	}
	return Verdict{Kind: VerdictFail, Reason: domain.Truncate(reason, domain.MaxFailReasonLen)}
}
