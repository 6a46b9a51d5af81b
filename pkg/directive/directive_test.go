package directive_test

import (
	"testing"

	"github.com/aretw0/gatehook/pkg/directive"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		text string
		want domain.StateUpdate
	}{
		{
			name: "step only",
			text: "Running step 2 of 5 now.",
			want: domain.StateUpdate{Step: 2, Total: 5},
		},
		{
			name: "full block in any order",
			text: "Gate: Code Review\n- tests pass\n- no TODOs left\n\nChain ID: release-flow\nShell Verify: go test ./...\nYou are on Step 3 of 4.",
			want: domain.StateUpdate{
				ChainID:     "release-flow",
				Step:        3,
				Total:       4,
				Gate:        "Code Review",
				Criteria:    []string{"tests pass", "no TODOs left"},
				ShellVerify: "go test ./...",
			},
		},
		{
			name: "pending gate with inline criteria",
			text: "pending gate: Security\nCriteria: inputs validated | secrets redacted |  ",
			want: domain.StateUpdate{Gate: "Security", Criteria: []string{"inputs validated", "secrets redacted"}},
		},
		{
			name: "numbered criteria after blank line",
			text: "**Gate:** Design\n\n1. covers edge cases\n2) names are clear\nThen continue.",
			want: domain.StateUpdate{Gate: "Design", Criteria: []string{"covers edge cases", "names are clear"}},
		},
		{
			name: "snake case markers",
			text: "chain_id: c1\npending_shell_verify: make check",
			want: domain.StateUpdate{ChainID: "c1", ShellVerify: "make check"},
		},
		{
			name: "completion",
			text: "All done.\n**Chain completed** successfully.",
			want: domain.StateUpdate{ChainComplete: true},
		},
		{
			name: "completion in prose is not a directive",
			text: "Step 2 of 5\nKeep iterating; the chain completed steps are listed below.",
			want: domain.StateUpdate{Step: 2, Total: 5},
		},
		{
			name: "completion line short of the last step",
			text: "Chain complete\nStep 3 of 4",
			want: domain.StateUpdate{Step: 3, Total: 4},
		},
		{
			name: "completion on the last step",
			text: "Step 4 of 4\nChain complete.",
			want: domain.StateUpdate{Step: 4, Total: 4, ChainComplete: true},
		},
		{
			name: "chain progress line carries no id",
			text: "Chain: Step 2 of 5",
			want: domain.StateUpdate{Step: 2, Total: 5},
		},
		{
			name: "short chain line",
			text: "Chain: onboarding",
			want: domain.StateUpdate{ChainID: "onboarding"},
		},
		{
			name: "first gate wins",
			text: "Gate: A\nGate: B",
			want: domain.StateUpdate{Gate: "A"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := directive.Parse(tc.text)
			assert.True(t, ok)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_NoDirective(t *testing.T) {
	for _, text := range []string{
		"",
		"   ",
		"Here is the plan for the refactor.",
		"Criteria: without a gate | mean nothing",
		"GATE_REVIEW: PASS - looks good",
		"step 5 of 2",
		"The chain completed without errors last week.",
	} {
		got, ok := directive.Parse(text)
		assert.False(t, ok, text)
		assert.True(t, got.IsEmpty(), text)
	}
}
