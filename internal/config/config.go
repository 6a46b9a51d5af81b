// Package config loads gatehook settings from .gatehook.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/gatehook/internal/logging"
	"github.com/aretw0/gatehook/pkg/gate"
	"github.com/aretw0/gatehook/pkg/loop"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the project directory.
const FileName = ".gatehook.yaml"

// Environment overrides.
const (
	EnvConfig      = "GATEHOOK_CONFIG"
	EnvStateDir    = "GATEHOOK_STATE_DIR"
	EnvRuntimeDir  = "GATEHOOK_RUNTIME_DIR"
	EnvStore       = "GATEHOOK_STORE"
	EnvRedisAddr   = "GATEHOOK_REDIS_ADDR"
	EnvHookDebug   = "GATEHOOK_HOOK_DEBUG"
	EnvMetricsFile = "GATEHOOK_METRICS_FILE"
)

// Store backends.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config is the resolved configuration. Paths are absolute or relative to
// ProjectDir once Load returns.
type Config struct {
	ProjectDir string `yaml:"-"`

	// StateDir holds sessions/ and loops/.
	StateDir string `yaml:"state_dir"`
	// RuntimeDir holds the externally written active-loop control file.
	RuntimeDir     string `yaml:"runtime_dir"`
	ActiveLoopFile string `yaml:"active_loop_file"`

	Store   string        `yaml:"store"`
	Redis   RedisConfig   `yaml:"redis"`
	LockTTL time.Duration `yaml:"lock_ttl"`

	Gate    GateConfig `yaml:"gate"`
	Tracker loop.Rules `yaml:"tracker"`

	// Catalog is the optional prompts.yaml consulted by the before-agent hook.
	Catalog string `yaml:"catalog"`
	// MemoryNotes is how many loop-memory notes the pre-compact hook re-injects.
	MemoryNotes int `yaml:"memory_notes"`

	MetricsFile string       `yaml:"metrics_file"`
	Server      ServerConfig `yaml:"server"`

	HookDebug bool   `yaml:"hook_debug"`
	DebugLog  string `yaml:"debug_log"`
}

// RedisConfig selects the Redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// GateConfig tunes enforcement.
type GateConfig struct {
	Tool           string `yaml:"tool"`
	MaxFailRetries int    `yaml:"max_fail_retries"`
}

// DefaultServerAddr keeps the inspection server on loopback unless configured
// otherwise; it can delete session records.
const DefaultServerAddr = "127.0.0.1:8080"

// ServerConfig configures the inspection server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ProjectDir:     ".",
		StateDir:       filepath.Join(".gatehook", "state"),
		RuntimeDir:     filepath.Join(".gatehook", "runtime"),
		ActiveLoopFile: "verify-active.json",
		Store:          StoreFile,
		Redis:          RedisConfig{Addr: "localhost:6379", Prefix: "gatehook:"},
		LockTTL:        10 * time.Second,
		Gate:           GateConfig{Tool: gate.DefaultTool},
		Tracker:        loop.DefaultRules(),
		Catalog:        filepath.Join(".gatehook", "prompts.yaml"),
		MemoryNotes:    5,
		Server:         ServerConfig{Addr: DefaultServerAddr},
		DebugLog:       filepath.Join(".gatehook", "hook-debug.log"),
	}
}

// Load reads the config for projectDir. path overrides the file location; when
// empty, GATEHOOK_CONFIG and then <projectDir>/.gatehook.yaml are tried.
// A missing file yields the defaults.
func Load(projectDir, path string) (*Config, error) {
	if projectDir == "" {
		projectDir = "."
	}
	cfg := Default()
	cfg.ProjectDir = projectDir

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	explicit := path != ""
	if !explicit {
		path = filepath.Join(projectDir, FileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvStateDir); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv(EnvRuntimeDir); v != "" {
		c.RuntimeDir = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvMetricsFile); v != "" {
		c.MetricsFile = v
	}
	if v, ok := os.LookupEnv(EnvHookDebug); ok {
		c.HookDebug = logging.DebugEnabled(v)
	}
}

func (c *Config) resolve() {
	c.StateDir = c.abs(c.StateDir)
	c.RuntimeDir = c.abs(c.RuntimeDir)
	c.DebugLog = c.abs(c.DebugLog)
	if c.Catalog != "" {
		c.Catalog = c.abs(c.Catalog)
	}
	if c.MetricsFile != "" {
		c.MetricsFile = c.abs(c.MetricsFile)
	}
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// Validate checks values the loaders cannot.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreFile, StoreRedis)
	}
	if c.Gate.MaxFailRetries < 0 {
		return fmt.Errorf("gate.max_fail_retries must not be negative")
	}
	if c.ActiveLoopFile == "" {
		return fmt.Errorf("active_loop_file must not be empty")
	}
	return nil
}

// SessionsDir is where session records live.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.StateDir, "sessions")
}

// LoopsDir is where loop ledgers live.
func (c *Config) LoopsDir() string {
	return filepath.Join(c.StateDir, "loops")
}

// ControlFilePath is the file naming the active loop.
func (c *Config) ControlFilePath() string {
	return filepath.Join(c.RuntimeDir, c.ActiveLoopFile)
}

// GatePolicy returns the enforcement policy.
func (c *Config) GatePolicy() gate.Policy {
	return gate.Policy{Tool: c.Gate.Tool, MaxFailRetries: c.Gate.MaxFailRetries}
}
