/*
Package hooks implements the lifecycle hooks on top of the orchestration core.

Each hook handles one payload and returns at most one output:

	gate-enforce   BeforeTool   deny prompt-tool calls that skip or fail a gate
	after-tool     AfterTool    record chain/gate directives, remind the agent
	before-agent   BeforeAgent  remind, and expand ">>prompt" invocations
	track          AfterTool    append tool evidence to the active loop ledger
	pre-compact    PreCompact   re-inject the reminder and recent loop memory
	session-start  SessionStart remind a resumed session
	stop           Stop         note the ledger totals in the loop memory

Internal faults never surface as denials. A hook that cannot read or write
state logs the fault and answers as if there were no state.
*/
package hooks
