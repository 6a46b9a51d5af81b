// Package directive extracts chain and gate directives from the free-text
// responses of the multi-step prompt tool.
//
// The producing tool writes for humans, so directives ride inside the text as
// line markers. Any subset may be present, in any order:
//
//	Chain ID: release-flow
//	Step 2 of 5
//	Gate: Code Review
//	- tests pass
//	- no TODOs left
//	Shell Verify: go test ./...
//
// The patterns below are a contract with the producing tool; change them only
// together with it.
package directive
