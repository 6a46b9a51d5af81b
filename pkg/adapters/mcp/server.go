package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/gatehook/internal/logging"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/gate"
	"github.com/aretw0/gatehook/pkg/ports"
	"github.com/aretw0/gatehook/pkg/reminder"
	"github.com/aretw0/gatehook/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	sessionsURI   = "gatehook://sessions"
	activeLoopURI = "gatehook://loops/active"
)

// SessionStatus is the result of the session_status tool.
type SessionStatus struct {
	Found    bool                 `json:"found" jsonschema_description:"Whether a record exists for the session"`
	State    *domain.SessionState `json:"state,omitempty" jsonschema_description:"The stored chain and gate record"`
	Reminder string               `json:"reminder,omitempty" jsonschema_description:"The reminder injected into the agent context"`
}

// GateCheck is the result of the check_gate tool.
type GateCheck struct {
	Allowed bool   `json:"allowed" jsonschema_description:"Whether the call would proceed"`
	Outcome string `json:"outcome" jsonschema_description:"allow, deny_fail or deny_pending"`
	Reason  string `json:"reason,omitempty" jsonschema_description:"The denial reason shown to the agent"`
}

// LoopLedger is the result of the loop_ledger tool.
type LoopLedger struct {
	Ledger            *domain.LoopSession `json:"ledger" jsonschema_description:"Everything recorded for the loop"`
	VerificationCount int                 `json:"verification_count" jsonschema_description:"Commands recognised as verification"`
	Memory            string              `json:"memory,omitempty" jsonschema_description:"The rendered tail of loop memory notes"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type gateArgs struct {
	SessionID   string `json:"session_id"`
	ToolName    string `json:"tool_name"`
	ChainID     string `json:"chain_id"`
	GateVerdict string `json:"gate_verdict"`
}

type loopArgs struct {
	LoopID string `json:"loop_id"`
}

// Server exposes session and loop state as an MCP server. It never writes.
type Server struct {
	sessions    *session.Manager
	ledger      ports.LedgerStore
	loops       ports.ActiveLoopSource
	policy      gate.Policy
	memoryNotes int
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLedger exposes loop ledgers; loops resolves the active one.
func WithLedger(ledger ports.LedgerStore, loops ports.ActiveLoopSource) Option {
	return func(s *Server) {
		s.ledger = ledger
		s.loops = loops
	}
}

// WithPolicy sets the gate policy check_gate evaluates.
func WithPolicy(p gate.Policy) Option {
	return func(s *Server) { s.policy = p }
}

// WithMemoryNotes sets how many loop memory notes are rendered.
func WithMemoryNotes(n int) Option {
	return func(s *Server) { s.memoryNotes = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		sessions:    sessions,
		policy:      gate.DefaultPolicy(),
		memoryNotes: 5,
		logger:      logging.NewNop(),
		mcpServer:   server.NewMCPServer("gatehook-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Show the chain and gate record of a session and the reminder it produces."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The agent session ID")),
		mcp.WithOutputSchema[SessionStatus](),
	), mcp.NewStructuredToolHandler(s.handleSessionStatus))

	s.mcpServer.AddTool(mcp.NewTool("check_gate",
		mcp.WithDescription("Evaluate the gate policy for a tool call without recording anything."),
		mcp.WithString("session_id", mcp.Description("The agent session ID")),
		mcp.WithString("tool_name", mcp.Description("The tool being called (defaults to the gated tool)")),
		mcp.WithString("chain_id", mcp.Description("The chain the call continues")),
		mcp.WithString("gate_verdict", mcp.Description("The verdict text, e.g. GATE_REVIEW: PASS")),
		mcp.WithOutputSchema[GateCheck](),
	), mcp.NewStructuredToolHandler(s.handleCheckGate))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the IDs of all stored sessions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
	})

	if s.ledger != nil {
		s.mcpServer.AddTool(mcp.NewTool("loop_ledger",
			mcp.WithDescription("Show what an autonomous loop has recorded. Defaults to the active loop."),
			mcp.WithString("loop_id", mcp.Description("The loop ID (optional)")),
			mcp.WithOutputSchema[LoopLedger](),
		), mcp.NewStructuredToolHandler(s.handleLoopLedger))
	}
}

func (s *Server) handleSessionStatus(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (SessionStatus, error) {
	if args.SessionID == "" {
		return SessionStatus{}, domain.ErrEmptyKey
	}
	state, err := s.sessions.Store().Load(ctx, args.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return SessionStatus{}, nil
	}
	if err != nil {
		return SessionStatus{}, fmt.Errorf("load session: %w", err)
	}
	return SessionStatus{Found: true, State: state, Reminder: reminder.Format(state)}, nil
}

func (s *Server) handleCheckGate(ctx context.Context, request mcp.CallToolRequest, args gateArgs) (GateCheck, error) {
	if args.ToolName == "" {
		args.ToolName = s.policy.Tool
	}
	var state *domain.SessionState
	if args.SessionID != "" {
		state, _ = s.sessions.Load(ctx, args.SessionID)
	}
	d := s.policy.Enforce(gate.Action{
		ToolName:  args.ToolName,
		SessionID: args.SessionID,
		ChainID:   args.ChainID,
		Verdict:   args.GateVerdict,
	}, state)
	return GateCheck{Allowed: d.Allowed(), Outcome: d.Outcome.String(), Reason: d.Reason}, nil
}

func (s *Server) handleLoopLedger(ctx context.Context, request mcp.CallToolRequest, args loopArgs) (LoopLedger, error) {
	id := args.LoopID
	if id == "" {
		active, ok := s.activeLoop(ctx)
		if !ok {
			return LoopLedger{}, domain.ErrNoActiveLoop
		}
		id = active
	}
	ls, err := s.fold(ctx, id)
	if err != nil {
		return LoopLedger{}, err
	}
	return LoopLedger{
		Ledger:            ls,
		VerificationCount: ls.VerificationCount(),
		Memory:            reminder.FormatLoopMemory(ls, s.memoryNotes),
	}, nil
}

func (s *Server) activeLoop(ctx context.Context) (string, bool) {
	if s.loops == nil {
		return "", false
	}
	return s.loops.ActiveLoop(ctx)
}

func (s *Server) fold(ctx context.Context, loopID string) (*domain.LoopSession, error) {
	entries, err := s.ledger.Entries(ctx, loopID)
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", loopID, err)
	}
	return domain.FoldLedger(loopID, entries), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Stored sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: sessionsURI, MIMEType: "application/json", Text: string(jsonBytes)},
		}, nil
	})

	if s.ledger == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource(activeLoopURI, "Active loop memory",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text := ""
		if id, ok := s.activeLoop(ctx); ok {
			ls, err := s.fold(ctx, id)
			if err != nil {
				return nil, err
			}
			text = reminder.FormatLoopMemory(ls, s.memoryNotes)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: activeLoopURI, MIMEType: "text/plain", Text: text},
		}, nil
	})
}
