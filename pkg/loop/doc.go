/*
Package loop keeps the evidence ledger of the active autonomous loop.

While an external control file names a loop, every file edit, shell command
and delegated sub-task observed after a tool call is appended to that loop's
ledger. Entries are persisted one by one as they happen; nothing is buffered
across hook invocations, and nothing is ever edited or removed.

The tracker only classifies. Commands that look like verification runs are
flagged so the stop hook can weigh them later; judging their output is not
done here.
*/
package loop
