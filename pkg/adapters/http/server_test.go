package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/gatehook/internal/hooks"
	httpadapter "github.com/aretw0/gatehook/pkg/adapters/http"
	"github.com/aretw0/gatehook/pkg/adapters/memory"
	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/hook"
	"github.com/aretw0/gatehook/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type staticLoop string

func (s staticLoop) ActiveLoop(context.Context) (string, bool) {
	return string(s), s != ""
}

type chanWatcher chan string

func (c chanWatcher) Watch(ctx context.Context) (<-chan string, error) {
	return c, nil
}

type fixture struct {
	store   *memory.Store
	ledger  *memory.Ledger
	handler http.Handler
}

func newFixture(t *testing.T, mutate ...func(*httpadapter.Server)) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), ledger: memory.NewLedger()}
	sessions := session.NewManager(f.store)
	s := &httpadapter.Server{
		Sessions: sessions,
		Ledger:   f.ledger,
		Loops:    staticLoop("loop-1"),
		Hooks:    hooks.New(sessions, hooks.WithLedger(f.ledger, staticLoop("loop-1"))),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("gatehook_hooks_total 0\n"))
		}),
		Version: "1.2.3\n",
	}
	for _, m := range mutate {
		m(s)
	}
	f.handler = httpadapter.NewHandler(s)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestGetHealth(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}

func TestCORSPreflight(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodOptions, "/sessions/s1", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	methods := rr.Header().Get("Access-Control-Allow-Methods")
	assert.Contains(t, methods, http.MethodGet)
	assert.NotContains(t, methods, http.MethodDelete, "cross-origin pages must not delete records")
}

func TestGetInfo(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/info", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[map[string]string](t, rr)
	assert.Equal(t, "gatehook-http", resp["app"])
	assert.Equal(t, "1.2.3", resp["version"])
	assert.Equal(t, httpadapter.APIVersion, resp["api_version"])
}

func TestSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, "s1", &domain.SessionState{
		SessionID: "s1", ChainID: "c1", CurrentStep: 2, TotalSteps: 4, PendingGate: "Review",
	}))

	rr := f.do(t, http.MethodGet, "/sessions/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"s1"}, decode[[]string](t, rr))

	rr = f.do(t, http.MethodGet, "/sessions/s1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[httpadapter.SessionView](t, rr)
	assert.Equal(t, "c1", view.State.ChainID)
	assert.Contains(t, view.Reminder, "Review")

	rr = f.do(t, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLoops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Append(ctx, "loop-1", domain.LedgerEntry{
		Kind:    domain.EntryCommand,
		Command: &domain.CommandRecord{Command: "go test ./...", IsVerification: true},
	}))

	rr := f.do(t, http.MethodGet, "/loops/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"loop-1"}, decode[[]string](t, rr))

	for _, path := range []string{"/loops/active", "/loops/loop-1"} {
		rr = f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rr.Code, path)
		ls := decode[domain.LoopSession](t, rr)
		assert.Equal(t, "loop-1", ls.LoopID)
		assert.Len(t, ls.Commands, 1)
	}
}

func TestGetActiveLoop_None(t *testing.T) {
	f := newFixture(t, func(s *httpadapter.Server) { s.Loops = staticLoop("") })
	rr := f.do(t, http.MethodGet, "/loops/active", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRunHook(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), "s1", &domain.SessionState{SessionID: "s1", PendingGate: "Review"}))

	rr := f.do(t, http.MethodPost, "/hooks/"+hooks.NameGateEnforce,
		`{"tool_name":"prompt_engine","session_id":"s1","tool_input":{"chain_id":"c1"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	out := decode[hook.Output](t, rr)
	assert.True(t, out.Denied())

	rr = f.do(t, http.MethodPost, "/hooks/"+hooks.NameGateEnforce, `{"tool_name":"write_file"}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodPost, "/hooks/nope", `{}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetrics(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "gatehook_hooks_total")
}

func TestSubscribeEvents_NoWatcher(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

// readEvents collects SSE data lines until n arrive or the stream ends.
func readEvents(t *testing.T, sc *bufio.Scanner, n int) []string {
	t.Helper()
	var events []string
	for sc.Scan() && len(events) < n {
		if data, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
			events = append(events, data)
		}
	}
	return events
}

func TestSubscribeEvents_Watcher(t *testing.T) {
	changes := make(chanWatcher, 1)
	f := newFixture(t, func(s *httpadapter.Server) { s.Watcher = changes })
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	changes <- "s1"

	assert.Equal(t, []string{"connected", "s1"}, readEvents(t, bufio.NewScanner(resp.Body), 2))
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?session_id=s1", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The ping is flushed after the subscription is registered.
	sc := bufio.NewScanner(resp.Body)
	require.Equal(t, []string{"connected"}, readEvents(t, sc, 1))

	body := `{"tool_name":"prompt_engine","session_id":"s1","tool_response":"Step 1 of 3\nchain_id: review"}`
	post, err := srv.Client().Post(srv.URL+"/hooks/"+hooks.NameAfterTool, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	post.Body.Close()

	events := readEvents(t, sc, 1)
	require.Len(t, events, 1)
	var view httpadapter.SessionView
	require.NoError(t, json.Unmarshal([]byte(events[0]), &view))
	require.NotNil(t, view.State)
	assert.Equal(t, 1, view.State.CurrentStep)
	assert.Equal(t, 3, view.State.TotalSteps)
}
