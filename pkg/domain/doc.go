/*
Package domain contains the core records of the gatehook orchestration core.

Every hook invocation is a fresh process, so nothing here holds state between
calls. The types describe what is persisted (a session record per session id and
an append-only ledger per loop id) and the pure rules for merging an update into
a session record. The package is free of I/O.

# Key Entities

  - SessionState: chain progress and the single pending approval gate of a session.
  - StateUpdate: the partial update extracted from a tool response.
  - LedgerEntry: one appended fact about an autonomous loop (file change, command,
    sub-agent result or memory note).
  - LoopSession: the ordered, folded view over a loop's ledger entries.
*/
package domain
