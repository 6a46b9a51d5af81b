package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/gatehook/pkg/adapters/memory"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/gate"
	"github.com/aretw0/gatehook/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLoop string

func (s staticLoop) ActiveLoop(context.Context) (string, bool) {
	return string(s), s != ""
}

func newTestServer(t *testing.T, loop string) (*Server, *memory.Store, *memory.Ledger) {
	t.Helper()
	store := memory.NewStore()
	ledger := memory.NewLedger()
	s := NewServer(session.NewManager(store), "0.0.1",
		WithLedger(ledger, staticLoop(loop)),
		WithPolicy(gate.Policy{Tool: gate.DefaultTool, MaxFailRetries: 2}),
	)
	return s, store, ledger
}

func TestSessionStatus(t *testing.T) {
	s, store, _ := newTestServer(t, "")
	ctx := context.Background()

	got, err := s.handleSessionStatus(ctx, mcp.CallToolRequest{}, sessionArgs{SessionID: "missing"})
	require.NoError(t, err)
	assert.False(t, got.Found)

	require.NoError(t, store.Save(ctx, "s1", &domain.SessionState{SessionID: "s1", PendingGate: "Review"}))
	got, err = s.handleSessionStatus(ctx, mcp.CallToolRequest{}, sessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "Review", got.State.PendingGate)
	assert.Contains(t, got.Reminder, "Review")

	_, err = s.handleSessionStatus(ctx, mcp.CallToolRequest{}, sessionArgs{})
	assert.ErrorIs(t, err, domain.ErrEmptyKey)
}

func TestCheckGate(t *testing.T) {
	s, store, _ := newTestServer(t, "")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", &domain.SessionState{SessionID: "s1", PendingGate: "Review", GateFailures: 1}))

	tests := []struct {
		name    string
		args    gateArgs
		outcome string
	}{
		{"ungoverned tool", gateArgs{SessionID: "s1", ToolName: "read_file", ChainID: "c1"}, "allow"},
		{"pending gate", gateArgs{SessionID: "s1", ChainID: "c1"}, "deny_pending"},
		{"pass clears", gateArgs{SessionID: "s1", ChainID: "c1", GateVerdict: "GATE_REVIEW: PASS"}, "allow"},
		{"fail", gateArgs{SessionID: "s1", GateVerdict: "GATE_REVIEW: FAIL - flaky"}, "deny_fail"},
		{"no session", gateArgs{ChainID: "c1"}, "allow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.handleCheckGate(ctx, mcp.CallToolRequest{}, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.outcome == "allow", got.Allowed)
		})
	}

	got, err := s.handleCheckGate(ctx, mcp.CallToolRequest{}, gateArgs{SessionID: "s1", GateVerdict: "GATE_REVIEW: FAIL - flaky"})
	require.NoError(t, err)
	assert.Contains(t, got.Reason, "Retry limit (2)")

	state, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.GateFailures, "check_gate never records")
}

func TestLoopLedger(t *testing.T) {
	s, _, ledger := newTestServer(t, "loop-1")
	ctx := context.Background()
	require.NoError(t, ledger.Append(ctx, "loop-1", domain.LedgerEntry{
		Kind:    domain.EntryCommand,
		Command: &domain.CommandRecord{Command: "go test ./...", IsVerification: true},
	}))
	require.NoError(t, ledger.Append(ctx, "loop-1", domain.LedgerEntry{
		Kind:   domain.EntryMemory,
		Memory: &domain.MemoryNote{Note: "tests green"},
	}))

	got, err := s.handleLoopLedger(ctx, mcp.CallToolRequest{}, loopArgs{})
	require.NoError(t, err)
	assert.Equal(t, "loop-1", got.Ledger.LoopID)
	assert.Equal(t, 1, got.VerificationCount)
	assert.Contains(t, got.Memory, "tests green")

	got, err = s.handleLoopLedger(ctx, mcp.CallToolRequest{}, loopArgs{LoopID: "other"})
	require.NoError(t, err)
	assert.Empty(t, got.Ledger.Commands)
}

func TestLoopLedger_NoActiveLoop(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	_, err := s.handleLoopLedger(context.Background(), mcp.CallToolRequest{}, loopArgs{})
	assert.ErrorIs(t, err, domain.ErrNoActiveLoop)
}

func call(t *testing.T, s *Server, method string, params any) map[string]any {
	t.Helper()
	p, err := json.Marshal(params)
	require.NoError(t, err)
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":%q,"params":%s}`, method, p)

	resp := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(msg))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Nil(t, out["error"], string(raw))
	return out
}

func TestToolsList(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	out := call(t, s, "tools/list", map[string]any{})

	var names []string
	for _, tool := range out["result"].(map[string]any)["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{"session_status", "check_gate", "list_sessions", "loop_ledger"}, names)
}

func TestSessionsResource(t *testing.T) {
	s, store, _ := newTestServer(t, "")
	require.NoError(t, store.Save(context.Background(), "s1", domain.NewSessionState("s1")))

	out := call(t, s, "resources/read", map[string]any{"uri": sessionsURI})
	raw, _ := json.Marshal(out["result"])
	assert.Contains(t, string(raw), `[\"s1\"]`)
}
