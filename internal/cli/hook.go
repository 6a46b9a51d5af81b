package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/gatehook/internal/config"
	"github.com/aretw0/gatehook/internal/hooks"
	"github.com/aretw0/gatehook/internal/logging"
	"github.com/aretw0/gatehook/internal/metrics"
	"github.com/aretw0/gatehook/pkg/hook"
	"github.com/google/uuid"
)

// payloadPreview bounds the payload echoed into the debug log.
const payloadPreview = 500

// HookOptions configures one hook invocation.
type HookOptions struct {
	Name       string
	Dir        string
	ConfigPath string
	Debug      bool

	// Stdin defaults to the process stdin; a terminal is never read.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunHook answers one hook event: it reads the payload, runs the named hook
// and writes its output. Only an unknown hook name is an error; every other
// fault is logged and answered with no output so the agent is never blocked
// by the hook itself.
func RunHook(ctx context.Context, opts HookOptions) error {
	if !hooks.Known(opts.Name) {
		return fmt.Errorf("unknown hook %q (known: %s)", opts.Name, strings.Join(hooks.Names(), ", "))
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	var (
		p   hook.Payload
		raw []byte
	)
	if opts.Stdin != nil {
		p, raw = hook.Read(opts.Stdin)
	} else {
		p, raw = hook.ReadStdin()
	}

	cfg, err := config.Load(opts.Dir, opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "gatehook: %v\n", err)
		return nil
	}

	logger, closeLog := hookLogger(cfg, opts)
	defer closeLog()
	logger.Debug("hook invoked", "event", p.Event, "tool", p.ToolName, "session_id", p.SessionID, "payload", logging.Preview(raw, payloadPreview))

	app, err := Open(cfg, logger)
	if err != nil {
		logger.Error("app not opened", "err", err)
		return nil
	}
	defer app.Close()

	out, err := app.Hooks(nil).Run(ctx, opts.Name, p)
	if err != nil {
		logger.Error("hook failed", "err", err)
		return nil
	}
	if err := hook.Write(opts.Stdout, out); err != nil {
		logger.Error("output not written", "err", err)
	}
	logger.Debug("hook answered", "denied", out.Denied(), "empty", out.IsEmpty())

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, app.StateCollector()); err != nil {
			logger.Warn("metrics textfile not written", "path", cfg.MetricsFile, "err", err)
		}
	}
	return nil
}

// hookLogger appends to the debug log when hook debugging is on.
func hookLogger(cfg *config.Config, opts HookOptions) (*slog.Logger, func()) {
	if !cfg.HookDebug && !opts.Debug {
		return logging.NewNop(), func() {}
	}
	logger, closer, err := logging.NewFile(cfg.DebugLog)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "gatehook: %v\n", err)
		return logging.NewNop(), func() {}
	}
	logger = logger.With("hook", opts.Name, "invocation", uuid.NewString())
	return logger, func() { _ = closer.Close() }
}
