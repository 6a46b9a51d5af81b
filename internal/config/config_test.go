package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/gatehook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, "")

	cfg, err := config.Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, config.StoreFile, cfg.Store)
	assert.Equal(t, filepath.Join(dir, ".gatehook", "state", "sessions"), cfg.SessionsDir())
	assert.Equal(t, filepath.Join(dir, ".gatehook", "state", "loops"), cfg.LoopsDir())
	assert.Equal(t, filepath.Join(dir, ".gatehook", "runtime", "verify-active.json"), cfg.ControlFilePath())
	assert.Equal(t, "prompt_engine", cfg.GatePolicy().Tool)
	assert.Zero(t, cfg.GatePolicy().MaxFailRetries)
	assert.False(t, cfg.HookDebug)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr, "loopback unless configured")
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, "")
	yml := `
state_dir: /var/lib/gatehook
store: redis
redis:
  addr: redis:6379
  prefix: "proj:"
  ttl: 24h
gate:
  max_fail_retries: 3
tracker:
  shell: [run_shell_command]
memory_notes: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(yml), 0o644))

	cfg, err := config.Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/gatehook", cfg.StateDir)
	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "proj:", cfg.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 3, cfg.Gate.MaxFailRetries)
	assert.Equal(t, "prompt_engine", cfg.Gate.Tool, "unset keys keep defaults")
	assert.Equal(t, []string{"run_shell_command"}, cfg.Tracker.Shell)
	assert.Equal(t, []string{"task"}, cfg.Tracker.Task)
	assert.Equal(t, 2, cfg.MemoryNotes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvStateDir, "custom-state")
	t.Setenv(config.EnvRuntimeDir, "/run/loops")
	t.Setenv(config.EnvHookDebug, "yes")
	t.Setenv(config.EnvMetricsFile, "metrics.prom")

	cfg, err := config.Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "custom-state"), cfg.StateDir)
	assert.Equal(t, filepath.Join("/run/loops", "verify-active.json"), cfg.ControlFilePath())
	assert.True(t, cfg.HookDebug)
	assert.Equal(t, filepath.Join(dir, "metrics.prom"), cfg.MetricsFile)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, "")

	_, err := config.Load(dir, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("store: [oops"), 0o644))
	_, err = config.Load(dir, bad)
	assert.Error(t, err)

	t.Setenv(config.EnvStore, "postgres")
	_, err = config.Load(dir, "")
	assert.ErrorContains(t, err, "unknown store")
}

func TestLoad_DebugSwitchOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("hook_debug: true\n"), 0o644))

	t.Setenv(config.EnvHookDebug, "maybe")
	cfg, err := config.Load(dir, "")
	require.NoError(t, err)
	assert.False(t, cfg.HookDebug)
}
