package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/gatehook/internal/logging"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/hook"
	"github.com/aretw0/gatehook/pkg/ports"
	"github.com/aretw0/gatehook/pkg/reminder"
	"github.com/aretw0/gatehook/pkg/session"
	"github.com/go-chi/chi/v5"
)

// APIVersion is reported by /info.
const APIVersion = "1"

// maxHookBody bounds a hook payload posted to /hooks/{name}.
const maxHookBody = 16 << 20

// HookRunner runs a named hook on a payload.
type HookRunner interface {
	Run(ctx context.Context, name string, p hook.Payload) (hook.Output, error)
}

// Watcher streams the keys of changed session records.
type Watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves the inspection API. Only Sessions is required.
type Server struct {
	Sessions *session.Manager
	Ledger   ports.LedgerStore
	Loops    ports.ActiveLoopSource
	Hooks    HookRunner
	Watcher  Watcher
	Metrics  http.Handler
	Version  string
	Logger   *slog.Logger

	streams *StreamManager
}

// SessionView is a session record plus its rendered reminder.
type SessionView struct {
	State    *domain.SessionState `json:"state"`
	Reminder string               `json:"reminder,omitempty"`
}

// NewHandler creates the HTTP handler for the server.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.Logger)
	}
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.DeleteSession)
	})

	if s.Ledger != nil {
		r.Route("/loops", func(r chi.Router) {
			r.Get("/", s.ListLoops)
			r.Get("/active", s.GetActiveLoop)
			r.Get("/{id}", s.GetLoop)
		})
	}
	if s.Hooks != nil {
		r.Post("/hooks/{name}", s.RunHook)
	}
	r.Get("/events", s.SubscribeEvents)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		// DELETE stays same-origin: it clears gates.
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "gatehook-http",
		"version":     strings.TrimSpace(s.Version),
		"api_version": APIVersion,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("list sessions: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Store().Load(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrCorruptState):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err)
	default:
		s.writeJSON(w, http.StatusOK, SessionView{State: state, Reminder: reminder.Format(state)})
	}
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.broadcast(id, SessionView{})
	w.WriteHeader(http.StatusNoContent)
}

// ListLoops handles GET /loops.
func (s *Server) ListLoops(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Ledger.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("list loops: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetActiveLoop handles GET /loops/active.
func (s *Server) GetActiveLoop(w http.ResponseWriter, r *http.Request) {
	if s.Loops == nil {
		s.writeError(w, http.StatusNotFound, domain.ErrNoActiveLoop)
		return
	}
	id, ok := s.Loops.ActiveLoop(r.Context())
	if !ok {
		s.writeError(w, http.StatusNotFound, domain.ErrNoActiveLoop)
		return
	}
	s.writeLoop(w, r, id)
}

// GetLoop handles GET /loops/{id}.
func (s *Server) GetLoop(w http.ResponseWriter, r *http.Request) {
	s.writeLoop(w, r, chi.URLParam(r, "id"))
}

func (s *Server) writeLoop(w http.ResponseWriter, r *http.Request, id string) {
	entries, err := s.Ledger.Entries(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, domain.FoldLedger(id, entries))
}

// RunHook handles POST /hooks/{name}. The body is the hook payload and the
// response is the hook output, or 204 when the hook has nothing to say.
// Subscribers of the payload's session receive the record as it stands afterwards.
func (s *Server) RunHook(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxHookBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	p := hook.Parse(data)
	out, err := s.Hooks.Run(r.Context(), chi.URLParam(r, "name"), p)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	if p.SessionID != "" && s.streams.Subscribed(p.SessionID) {
		state, _ := s.Sessions.Load(r.Context(), p.SessionID)
		s.broadcast(p.SessionID, SessionView{State: state, Reminder: reminder.Format(state)})
	}

	if out.IsEmpty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) broadcast(sessionID string, v SessionView) {
	data, err := json.Marshal(v)
	if err != nil {
		s.Logger.Warn("broadcast encode failed", "session_id", sessionID, "err", err)
		return
	}
	s.streams.Broadcast(sessionID, string(data))
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribed reports whether anyone listens to the session.
func (sm *StreamManager) Subscribed(sessionID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID]) > 0
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles GET /events (SSE). With ?session_id= it streams
// that session's record after every hook served here; without it, it streams
// the key of every record changed on disk.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	var (
		events <-chan string
		name   = "session"
	)
	if sessionID == "" {
		if s.Watcher == nil {
			s.writeError(w, http.StatusNotImplemented, errors.New("store cannot be watched"))
			return
		}
		ch, err := s.Watcher.Watch(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("watch: %w", err))
			return
		}
		events, name = ch, "change"
	} else {
		ch, cancel := s.streams.Subscribe(sessionID)
		defer cancel()
		events = ch
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
