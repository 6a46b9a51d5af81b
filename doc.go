/*
Package gatehook keeps an AI coding agent's multi-step prompt chains behind
their review gates.

An agent CLI runs gatehook from its lifecycle hooks. Each invocation is a
separate process that reads one JSON payload on stdin and answers with at most
one JSON line on stdout.

# Concept

Responses of the prompt tool carry directives ("Step 2 of 5", "Gate: Code
Review", criteria lists). gatehook folds them into a per-session record kept
in a durable store, and later calls of the prompt tool that try to continue
the chain without a GATE_REVIEW verdict are denied. Reminders of the pending
gate and chain position are injected back into the agent's context.

While an autonomous verification loop is active, tool usage is appended to a
per-loop ledger (file changes, commands, sub-agent results, memory notes) that
survives restarts and context compaction.

# Layout

  - pkg/domain: session records, state updates and ledger entries
  - pkg/directive, pkg/gate, pkg/reminder, pkg/loop: the pure core
  - pkg/session: the serialised load-update-save cycle over a ports.StateStore
  - internal/adapters: file, Redis and in-memory stores, ledgers and locks
  - internal/hooks: the seven lifecycle hooks
  - cmd/gatehook: the CLI

# Usage

Register the hooks with the agent CLI:

	gatehook hook gate-enforce   # BeforeTool
	gatehook hook after-tool     # AfterTool
	gatehook hook track          # AfterTool
	gatehook hook before-agent   # BeforeAgent
	gatehook hook pre-compact    # PreCompact
	gatehook hook session-start  # SessionStart
	gatehook hook stop           # Stop

and inspect state with "gatehook status", "gatehook loop" or "gatehook serve".
*/
package gatehook
