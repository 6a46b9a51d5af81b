package hooks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/gatehook/pkg/domain"
)

var (
	invocationPattern = regexp.MustCompile(`^>>\s*([a-zA-Z0-9_-]+)`)
	chainLinkPattern  = regexp.MustCompile(`>>\s*([a-zA-Z0-9_-]+)\s*(?:-->|→)`)
	chainTailPattern  = regexp.MustCompile(`(?:-->|→)\s*>>\s*([a-zA-Z0-9_-]+)\s*$`)
	quotedGatePattern = regexp.MustCompile(`::\s*['"]([^'"]+)['"]`)
	idGatePattern     = regexp.MustCompile(`::\s*([a-zA-Z][a-zA-Z0-9_-]*)\b`)
)

// DetectInvocation returns the prompt ID when the message starts with ">>id".
func DetectInvocation(message string) (string, bool) {
	m := invocationPattern.FindStringSubmatch(strings.TrimSpace(message))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DetectChain returns the prompt IDs of a ">>a --> >>b" chain, in order.
func DetectChain(message string) []string {
	var ids []string
	for _, m := range chainLinkPattern.FindAllStringSubmatch(message, -1) {
		ids = append(ids, m[1])
	}
	if m := chainTailPattern.FindStringSubmatch(message); m != nil {
		ids = append(ids, m[1])
	}
	return ids
}

// DetectInlineGates returns gates written as ":: 'text'" or ":: id",
// quoted ones first.
func DetectInlineGates(message string) []string {
	var gates []string
	for _, m := range quotedGatePattern.FindAllStringSubmatch(message, -1) {
		gates = append(gates, m[1])
	}
	for _, m := range idGatePattern.FindAllStringSubmatch(message, -1) {
		gates = append(gates, m[1])
	}
	return gates
}

// ToolCall renders the prompt tool call that runs a catalog prompt.
func ToolCall(p Prompt) string {
	if len(p.Arguments) == 0 {
		return fmt.Sprintf(`prompt_engine(command:">>%s")`, p.ID)
	}
	opts := make([]string, 0, len(p.Arguments))
	for _, a := range p.Arguments {
		placeholder := fmt.Sprintf(`"<%s>"`, a.Name)
		if a.Default != "" {
			placeholder = fmt.Sprintf(`"%s"`, a.Default)
		}
		opts = append(opts, fmt.Sprintf(`"%s": %s`, a.Name, placeholder))
	}
	return fmt.Sprintf(`prompt_engine(command:">>%s", options:{%s})`, p.ID, strings.Join(opts, ", "))
}

// invocationLines renders the suggestions for a user message.
func invocationLines(message string, catalog Catalog) []string {
	var lines []string

	if catalog != nil {
		if id, ok := DetectInvocation(message); ok {
			if p, found := catalog.Prompt(id); found {
				category := p.Category
				if category == "" {
					category = "unknown"
				}
				tag := ""
				if p.IsChain {
					tag = fmt.Sprintf(" [Chain: %d steps]", p.ChainSteps)
				}
				lines = append(lines,
					fmt.Sprintf("[MCP] >>%s (%s)%s", id, category, tag),
					"  "+ToolCall(p),
				)
			} else {
				lines = append(lines, fmt.Sprintf("[MCP Prompt Not Found] >>%s", id))
			}
		}
	}

	if chain := DetectChain(message); len(chain) > 1 {
		steps := make([]string, len(chain))
		for i, id := range chain {
			steps[i] = ">>" + id
		}
		lines = append(lines,
			fmt.Sprintf("[MCP Chain] %d steps", len(chain)),
			fmt.Sprintf(`  prompt_engine(command:"%s")`, strings.Join(steps, " --> ")),
		)
	}

	if gates := DetectInlineGates(message); len(gates) > 0 {
		if len(gates) > domain.MaxCriteriaShown {
			gates = gates[:domain.MaxCriteriaShown]
		}
		for i, g := range gates {
			gates[i] = domain.Truncate(g, domain.MaxCriterionLen)
		}
		lines = append(lines,
			"[Gates] "+strings.Join(gates, " | "),
			"  Respond: GATE_REVIEW: PASS|FAIL - <reason>",
		)
	}
	return lines
}
