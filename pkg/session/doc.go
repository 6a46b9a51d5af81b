/*
Package session guards the load-modify-save cycle on session state.

Every hook is its own process, so the Manager's in-process lock only serialises
goroutines of one process (the serve and mcp commands). Across processes it can
take a ports.DistributedLocker; without one, writes are still atomic renames and
overlapping writers resolve as last-writer-wins.

Reads never fail: a missing or unreadable record is reported as absent, so
callers fall back to "no chain, no gate".
*/
package session
