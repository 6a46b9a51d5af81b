// Package gate decides whether a call to the governed prompt tool may run.
//
// A gate is pending once the prompt tool's response names one. From then on a
// call that resumes the chain must carry a verdict:
//
//	GATE_REVIEW: PASS
//	GATE_REVIEW: FAIL - missing tests
//
// FAIL is always denied and never clears the gate. Resuming without a PASS
// verdict is denied while the gate is pending. Everything else passes.
package gate
