package cli

import (
	"fmt"
	"net/http"

	httpadapter "github.com/aretw0/gatehook/pkg/adapters/http"
	"github.com/aretw0/gatehook/pkg/adapters/mcp"
)

// HTTPHandler wires the inspection API over the App. Hooks posted to it are
// counted in the App's metrics, which also carry the stored-state gauges.
func HTTPHandler(app *App, version string) (http.Handler, error) {
	if err := app.Metrics.Register(app.StateCollector()); err != nil {
		return nil, fmt.Errorf("register state metrics: %w", err)
	}
	s := &httpadapter.Server{
		Sessions: app.Sessions,
		Ledger:   app.Ledger,
		Loops:    app.Loops,
		Hooks:    app.Hooks(app.Metrics),
		Metrics:  app.Metrics.Handler(),
		Version:  version,
		Logger:   app.Logger,
	}
	if w, ok := app.Watcher(); ok {
		s.Watcher = w
	}
	return httpadapter.NewHandler(s), nil
}

// MCPServer wires the MCP inspection server over the App.
func MCPServer(app *App, version string) *mcp.Server {
	return mcp.NewServer(app.Sessions, version,
		mcp.WithLedger(app.Ledger, app.Loops),
		mcp.WithPolicy(app.Config.GatePolicy()),
		mcp.WithMemoryNotes(app.Config.MemoryNotes),
		mcp.WithLogger(app.Logger),
	)
}
