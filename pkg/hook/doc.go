/*
Package hook reads the JSON payload a host hands to a lifecycle hook and writes
the hook's single JSON answer.

Hosts disagree on key names (tool_name vs toolName, tool_response vs result), so
every logical field is resolved by an explicit prioritized lookup rather than by
probing. Malformed or absent input is an empty Payload, never an error: a hook
that cannot read its input simply has nothing to do.
*/
package hook
