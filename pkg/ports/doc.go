/*
Package ports defines the driven ports (interfaces) of the gatehook core.

These interfaces decouple the hook logic from storage, so the same handlers run
against session files on disk, a shared Redis, or memory in tests.

# Key Interfaces

  - StateStore: persists and loads one SessionState per session ID.
  - LedgerStore: appends to and reads the ledger of an autonomous loop.
  - DistributedLocker: serialises load-modify-save cycles across processes.
  - ActiveLoopSource: reads which autonomous loop is live.
*/
package ports
