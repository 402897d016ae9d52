package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

var builtInMCPTools = map[string]struct{}{
	"nuke_create_node":  {},
	"nuke_set_knob":     {},
	"nuke_get_node":     {},
	"nuke_list_nodes":   {},
	"nuke_render":       {},
	"nuke_send_command": {},
}

// ---------------------------------------------------------------------------
// Config — Central configuration for a NukeBridge server instance.
//
// The configuration is resolved through a four-level hierarchy where each
// layer overrides values set by the layer beneath it:
//
//	Priority (highest → lowest):
//	  1. Programmatic overrides (e.g. CLI flags applied after loading)
//	  2. YAML configuration file
//	  3. Environment variables (NUKEBRIDGE_* prefix)
//	  4. Built-in defaults
//
// All duration fields accept standard Go duration strings when supplied
// through the YAML file or environment variables (e.g. "30s", "5m", "1h").
// ---------------------------------------------------------------------------

// ServerConfig groups TCP listener settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the bridge binds to.
	// The original bridge listened on loopback port 8765.
	ListenAddr string `yaml:"listenAddr"`

	// MaxConnections bounds the number of concurrently served clients.
	// Connections beyond the bound receive a one-line failure and are closed.
	MaxConnections int `yaml:"maxConnections"`

	// MaxLineBytes is the largest accepted request line in bytes.
	MaxLineBytes int `yaml:"maxLineBytes"`
}

// ExecutorConfig groups owning-goroutine pump settings.
type ExecutorConfig struct {
	// QueueSize is the buffered depth of the work queue.
	QueueSize int `yaml:"queueSize"`

	// JobTimeout bounds how long a caller waits for one command.
	// 0 disables the deadline; the job keeps the pump until it returns.
	JobTimeout time.Duration `yaml:"jobTimeout"`
}

// StorageConfig groups persistence-related settings.
type StorageConfig struct {
	// DataPath is the directory where .nkb script files are stored.
	DataPath string `yaml:"dataPath"`

	// ToolsetPath is the directory for saved node templates.
	ToolsetPath string `yaml:"toolsetPath"`

	// Compress enables gzip compression inside the .nkb envelope.
	Compress bool `yaml:"compress"`
}

// LifecycleConfig groups connection state transition thresholds.
type LifecycleConfig struct {
	// IdleThreshold is how long a connection must be quiet before
	// transitioning from Active → Idle.
	IdleThreshold time.Duration `yaml:"idleThreshold"`

	// StaleThreshold is how long a connection must be idle before
	// transitioning from Idle → Stale (eligible for reaping).
	StaleThreshold time.Duration `yaml:"staleThreshold"`
}

// DaemonConfig groups background daemon interval settings.
type DaemonConfig struct {
	// AutosaveInterval controls how often the graph is snapshotted to disk.
	// 0 disables autosave.
	AutosaveInterval time.Duration `yaml:"autosaveInterval"`

	// ReapInterval controls how often stale connections are closed.
	// 0 disables reaping.
	ReapInterval time.Duration `yaml:"reapInterval"`
}

// ProjectConfig groups initial project settings for a fresh graph.
type ProjectConfig struct {
	FirstFrame int     `yaml:"firstFrame"`
	LastFrame  int     `yaml:"lastFrame"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FPS        float64 `yaml:"fps"`
}

// MCPConfig groups Model Context Protocol endpoint settings.
type MCPConfig struct {
	// Enabled controls whether the MCP HTTP endpoint is exposed.
	Enabled bool `yaml:"enabled"`

	// HTTPAddr is the address the MCP HTTP server binds to.
	HTTPAddr string `yaml:"httpAddr"`

	// Path is the HTTP route for MCP transport.
	Path string `yaml:"path"`

	// APIKey is optional shared secret validated from X-API-Key or Bearer token.
	APIKey string `yaml:"apiKey"`

	// Stateless enables stateless session-id handling for streamable HTTP.
	Stateless bool `yaml:"stateless"`

	// RateLimitRPS controls per-client rate limiting in requests/second.
	// Set to 0 to disable MCP-specific rate limiting.
	RateLimitRPS float64 `yaml:"rateLimitRPS"`

	// RateLimitBurst controls burst capacity for MCP-specific rate limiting.
	RateLimitBurst int `yaml:"rateLimitBurst"`

	// EnablePrompts toggles MCP prompt registration.
	EnablePrompts bool `yaml:"enablePrompts"`

	// AllowedTools is an optional allowlist; empty means all built-in MCP tools.
	AllowedTools []string `yaml:"allowedTools"`
}

// Config is the root configuration object for a NukeBridge server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Storage   StorageConfig   `yaml:"storage"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Daemons   DaemonConfig    `yaml:"daemons"`
	Project   ProjectConfig   `yaml:"project"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// ---------------------------------------------------------------------------
// Factory functions
// ---------------------------------------------------------------------------

// DefaultConfig returns a Config populated with production-safe defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     "127.0.0.1:8765",
			MaxConnections: 64,
			MaxLineBytes:   1 << 20, // 1 MB
		},
		Executor: ExecutorConfig{
			QueueSize:  256,
			JobTimeout: 0,
		},
		Storage: StorageConfig{
			DataPath:    "./data",
			ToolsetPath: "./toolsets",
			Compress:    true,
		},
		Lifecycle: LifecycleConfig{
			IdleThreshold:  30 * time.Second,
			StaleThreshold: 5 * time.Minute,
		},
		Daemons: DaemonConfig{
			AutosaveInterval: 1 * time.Minute,
			ReapInterval:     30 * time.Second,
		},
		Project: ProjectConfig{
			FirstFrame: 1,
			LastFrame:  100,
			Width:      1920,
			Height:     1080,
			FPS:        24,
		},
		MCP: MCPConfig{
			Enabled:        false,
			HTTPAddr:       ":6061",
			Path:           "/mcp",
			APIKey:         "",
			Stateless:      true,
			RateLimitRPS:   30,
			RateLimitBurst: 60,
			EnablePrompts:  true,
			AllowedTools:   nil,
		},
	}
}

// ConfigFromFile reads a YAML configuration file and merges it on top of
// the built-in defaults. Fields absent from the file retain their defaults.
func ConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// ConfigFromEnv applies environment variable overrides to the given Config.
// If cfg is nil a new default Config is created first.
//
// Environment variable mapping (all optional, prefix NUKEBRIDGE_):
//
//	NUKEBRIDGE_LISTEN_ADDR        → Server.ListenAddr
//	NUKEBRIDGE_MAX_CONNECTIONS    → Server.MaxConnections
//	NUKEBRIDGE_MAX_LINE_BYTES     → Server.MaxLineBytes
//	NUKEBRIDGE_QUEUE_SIZE         → Executor.QueueSize
//	NUKEBRIDGE_JOB_TIMEOUT        → Executor.JobTimeout       (duration string)
//	NUKEBRIDGE_DATA_PATH          → Storage.DataPath
//	NUKEBRIDGE_TOOLSET_PATH       → Storage.ToolsetPath
//	NUKEBRIDGE_COMPRESS           → Storage.Compress          ("true"/"false")
//	NUKEBRIDGE_IDLE_THRESHOLD     → Lifecycle.IdleThreshold   (duration string)
//	NUKEBRIDGE_STALE_THRESHOLD    → Lifecycle.StaleThreshold  (duration string)
//	NUKEBRIDGE_AUTOSAVE_INTERVAL  → Daemons.AutosaveInterval  (duration string, 0=off)
//	NUKEBRIDGE_REAP_INTERVAL      → Daemons.ReapInterval      (duration string, 0=off)
//	NUKEBRIDGE_FIRST_FRAME        → Project.FirstFrame
//	NUKEBRIDGE_LAST_FRAME         → Project.LastFrame
//	NUKEBRIDGE_PROJECT_WIDTH      → Project.Width
//	NUKEBRIDGE_PROJECT_HEIGHT     → Project.Height
//	NUKEBRIDGE_PROJECT_FPS        → Project.FPS               (float)
//	NUKEBRIDGE_MCP_ENABLED        → MCP.Enabled               ("true"/"false")
//	NUKEBRIDGE_MCP_HTTP_ADDR      → MCP.HTTPAddr
//	NUKEBRIDGE_MCP_PATH           → MCP.Path
//	NUKEBRIDGE_MCP_API_KEY        → MCP.APIKey
//	NUKEBRIDGE_MCP_STATELESS      → MCP.Stateless             ("true"/"false")
//	NUKEBRIDGE_MCP_RATE_LIMIT_RPS → MCP.RateLimitRPS          (float)
//	NUKEBRIDGE_MCP_RATE_LIMIT_BURST → MCP.RateLimitBurst      (integer)
//	NUKEBRIDGE_MCP_ENABLE_PROMPTS → MCP.EnablePrompts         ("true"/"false")
//	NUKEBRIDGE_MCP_ALLOWED_TOOLS  → MCP.AllowedTools          (comma-separated)
func ConfigFromEnv(cfg *Config) *Config {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// -- Server --
	setEnvStr("NUKEBRIDGE_LISTEN_ADDR", &cfg.Server.ListenAddr)
	setEnvInt("NUKEBRIDGE_MAX_CONNECTIONS", &cfg.Server.MaxConnections)
	setEnvInt("NUKEBRIDGE_MAX_LINE_BYTES", &cfg.Server.MaxLineBytes)

	// -- Executor --
	setEnvInt("NUKEBRIDGE_QUEUE_SIZE", &cfg.Executor.QueueSize)
	setEnvDuration("NUKEBRIDGE_JOB_TIMEOUT", &cfg.Executor.JobTimeout)

	// -- Storage --
	setEnvStr("NUKEBRIDGE_DATA_PATH", &cfg.Storage.DataPath)
	setEnvStr("NUKEBRIDGE_TOOLSET_PATH", &cfg.Storage.ToolsetPath)
	setEnvBool("NUKEBRIDGE_COMPRESS", &cfg.Storage.Compress)

	// -- Lifecycle --
	setEnvDuration("NUKEBRIDGE_IDLE_THRESHOLD", &cfg.Lifecycle.IdleThreshold)
	setEnvDuration("NUKEBRIDGE_STALE_THRESHOLD", &cfg.Lifecycle.StaleThreshold)

	// -- Daemons --
	setEnvDuration("NUKEBRIDGE_AUTOSAVE_INTERVAL", &cfg.Daemons.AutosaveInterval)
	setEnvDuration("NUKEBRIDGE_REAP_INTERVAL", &cfg.Daemons.ReapInterval)

	// -- Project --
	setEnvInt("NUKEBRIDGE_FIRST_FRAME", &cfg.Project.FirstFrame)
	setEnvInt("NUKEBRIDGE_LAST_FRAME", &cfg.Project.LastFrame)
	setEnvInt("NUKEBRIDGE_PROJECT_WIDTH", &cfg.Project.Width)
	setEnvInt("NUKEBRIDGE_PROJECT_HEIGHT", &cfg.Project.Height)
	setEnvFloat("NUKEBRIDGE_PROJECT_FPS", &cfg.Project.FPS)

	// -- MCP --
	setEnvBool("NUKEBRIDGE_MCP_ENABLED", &cfg.MCP.Enabled)
	setEnvStr("NUKEBRIDGE_MCP_HTTP_ADDR", &cfg.MCP.HTTPAddr)
	setEnvStr("NUKEBRIDGE_MCP_PATH", &cfg.MCP.Path)
	setEnvStr("NUKEBRIDGE_MCP_API_KEY", &cfg.MCP.APIKey)
	setEnvBool("NUKEBRIDGE_MCP_STATELESS", &cfg.MCP.Stateless)
	setEnvFloat("NUKEBRIDGE_MCP_RATE_LIMIT_RPS", &cfg.MCP.RateLimitRPS)
	setEnvInt("NUKEBRIDGE_MCP_RATE_LIMIT_BURST", &cfg.MCP.RateLimitBurst)
	setEnvBool("NUKEBRIDGE_MCP_ENABLE_PROMPTS", &cfg.MCP.EnablePrompts)
	setEnvCSV("NUKEBRIDGE_MCP_ALLOWED_TOOLS", &cfg.MCP.AllowedTools)

	return cfg
}

// LoadConfig implements the full four-level configuration hierarchy:
//
//  1. Start with built-in defaults.
//  2. If configPath is non-empty, overlay the YAML file.
//  3. Apply environment variable overrides.
//  4. The caller may then apply programmatic overrides (e.g. CLI flags).
//
// Returns the merged Config or an error if the file cannot be read/parsed.
func LoadConfig(configPath string) (*Config, error) {
	var cfg *Config

	if configPath != "" {
		var err error
		cfg, err = ConfigFromFile(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = DefaultConfig()
	}

	cfg = ConfigFromEnv(cfg)
	return cfg, nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate performs structural validation of the entire configuration.
// Returns a descriptive error for the first invalid field encountered.
func (c *Config) Validate() error {
	// Server
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listenAddr must not be empty")
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("server.maxConnections must be >= 1, got %d", c.Server.MaxConnections)
	}
	if c.Server.MaxLineBytes < 1024 {
		return fmt.Errorf("server.maxLineBytes must be >= 1024, got %d", c.Server.MaxLineBytes)
	}

	// Executor
	if c.Executor.QueueSize < 1 {
		return fmt.Errorf("executor.queueSize must be >= 1, got %d", c.Executor.QueueSize)
	}
	if c.Executor.JobTimeout < 0 {
		return fmt.Errorf("executor.jobTimeout must be >= 0 (0 = no deadline)")
	}

	// Storage
	if c.Storage.DataPath == "" {
		return fmt.Errorf("storage.dataPath must not be empty")
	}
	if c.Storage.ToolsetPath == "" {
		return fmt.Errorf("storage.toolsetPath must not be empty")
	}

	// Lifecycle — ensure ordering makes sense
	if c.Lifecycle.IdleThreshold <= 0 {
		return fmt.Errorf("lifecycle.idleThreshold must be > 0")
	}
	if c.Lifecycle.StaleThreshold <= c.Lifecycle.IdleThreshold {
		return fmt.Errorf("lifecycle.staleThreshold (%v) must be > lifecycle.idleThreshold (%v)",
			c.Lifecycle.StaleThreshold, c.Lifecycle.IdleThreshold)
	}

	// Daemons — 0 disables, negative is invalid
	if c.Daemons.AutosaveInterval < 0 {
		return fmt.Errorf("daemons.autosaveInterval must be >= 0 (0 = disabled)")
	}
	if c.Daemons.ReapInterval < 0 {
		return fmt.Errorf("daemons.reapInterval must be >= 0 (0 = disabled)")
	}

	// Project
	if c.Project.LastFrame < c.Project.FirstFrame {
		return fmt.Errorf("project.lastFrame (%d) must be >= project.firstFrame (%d)",
			c.Project.LastFrame, c.Project.FirstFrame)
	}
	if c.Project.Width < 1 || c.Project.Height < 1 {
		return fmt.Errorf("project resolution must be positive, got %dx%d",
			c.Project.Width, c.Project.Height)
	}
	if c.Project.FPS <= 0 {
		return fmt.Errorf("project.fps must be > 0, got %g", c.Project.FPS)
	}

	// Boundary guards (unless you know what you are doing)
	if c.Server.MaxConnections > 4096 {
		log.Printf("⚠ WARNING: server.maxConnections=%d is extremely high; each connection holds a goroutine — proceed only if you know what you are doing", c.Server.MaxConnections)
	}
	if c.Daemons.AutosaveInterval > 0 && c.Daemons.AutosaveInterval < 5*time.Second {
		log.Printf("⚠ WARNING: daemons.autosaveInterval=%v is very aggressive — this will increase disk I/O", c.Daemons.AutosaveInterval)
	}
	if c.Executor.JobTimeout > 0 && c.Executor.JobTimeout < 100*time.Millisecond {
		log.Printf("⚠ WARNING: executor.jobTimeout=%v is very tight — renders and batch commands will likely hit it", c.Executor.JobTimeout)
	}

	// MCP
	mcpPath := strings.TrimSpace(c.MCP.Path)
	if mcpPath == "" {
		mcpPath = "/mcp"
	}
	if !strings.HasPrefix(mcpPath, "/") {
		return fmt.Errorf("mcp.path must start with '/'")
	}
	if len(mcpPath) > 1 {
		mcpPath = strings.TrimRight(mcpPath, "/")
	}
	c.MCP.Path = mcpPath
	if c.MCP.Enabled && c.MCP.HTTPAddr == "" {
		return fmt.Errorf("mcp.httpAddr must not be empty when mcp is enabled")
	}
	if c.MCP.RateLimitRPS < 0 {
		return fmt.Errorf("mcp.rateLimitRPS must be >= 0")
	}
	if c.MCP.RateLimitBurst < 0 {
		return fmt.Errorf("mcp.rateLimitBurst must be >= 0")
	}
	if len(c.MCP.AllowedTools) > 0 {
		dedup := make(map[string]struct{}, len(c.MCP.AllowedTools))
		invalid := make(map[string]struct{})
		tools := make([]string, 0, len(c.MCP.AllowedTools))
		for _, name := range c.MCP.AllowedTools {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := dedup[name]; ok {
				continue
			}
			if _, ok := builtInMCPTools[name]; !ok {
				invalid[name] = struct{}{}
				continue
			}
			dedup[name] = struct{}{}
			tools = append(tools, name)
		}
		if len(invalid) > 0 {
			invalidTools := make([]string, 0, len(invalid))
			for name := range invalid {
				invalidTools = append(invalidTools, name)
			}
			sort.Strings(invalidTools)
			return fmt.Errorf("mcp.allowedTools contains unsupported tools: %s", strings.Join(invalidTools, ", "))
		}
		c.MCP.AllowedTools = tools
	}
	if c.MCP.Enabled && c.MCP.APIKey == "" && isProductionMode() {
		return fmt.Errorf("mcp.apiKey must be set when mcp is enabled in production")
	}

	return nil
}

func isProductionMode() bool {
	for _, key := range []string{"NUKEBRIDGE_ENV", "GO_ENV", "APP_ENV"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		if v == "production" || v == "prod" {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Environment variable helpers
// ---------------------------------------------------------------------------

// setEnvStr sets *target to the value of the named env var if it is non-empty.
func setEnvStr(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// setEnvBool sets *target to the parsed boolean value of the named env var.
// Accepted values: "true", "1" → true; "false", "0" → false.
func setEnvBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

// setEnvInt sets *target to the parsed integer value of the named env var.
func setEnvInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setEnvDuration sets *target to the parsed duration of the named env var.
// Uses time.ParseDuration, so accepts "30s", "5m", "1h30m", etc.
func setEnvDuration(key string, target *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}

// setEnvFloat sets *target to the parsed float64 value of the named env var.
func setEnvFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// setEnvCSV sets *target to a comma-separated env var list.
func setEnvCSV(key string, target *[]string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		*target = out
	}
}

// ---------------------------------------------------------------------------
// CLI flag overrides — final layer of the configuration hierarchy.
// ---------------------------------------------------------------------------

// CLIOverrides carries optional values set via command-line flags.
// Pointer fields are nil when the flag was not explicitly provided,
// allowing the caller to distinguish "not set" from the zero value.
type CLIOverrides struct {
	ConfigPath       *string
	ListenAddr       *string
	MaxConnections   *int
	DataPath         *string
	ToolsetPath      *string
	Compress         *bool
	JobTimeout       *time.Duration
	IdleThreshold    *time.Duration
	StaleThreshold   *time.Duration
	AutosaveInterval *time.Duration
	ReapInterval     *time.Duration
	MCPEnabled       *bool
	MCPHTTPAddr      *string
	MCPAPIKey        *string
}

// ApplyCLIOverrides patches the Config with any explicitly-set CLI flags.
// Only non-nil fields in the CLIOverrides are applied, preserving all
// values resolved from earlier hierarchy layers.
func (c *Config) ApplyCLIOverrides(o *CLIOverrides) {
	if o == nil {
		return
	}
	if o.ListenAddr != nil {
		c.Server.ListenAddr = *o.ListenAddr
	}
	if o.MaxConnections != nil {
		c.Server.MaxConnections = *o.MaxConnections
	}
	if o.DataPath != nil {
		c.Storage.DataPath = *o.DataPath
	}
	if o.ToolsetPath != nil {
		c.Storage.ToolsetPath = *o.ToolsetPath
	}
	if o.Compress != nil {
		c.Storage.Compress = *o.Compress
	}
	if o.JobTimeout != nil {
		c.Executor.JobTimeout = *o.JobTimeout
	}
	if o.IdleThreshold != nil {
		c.Lifecycle.IdleThreshold = *o.IdleThreshold
	}
	if o.StaleThreshold != nil {
		c.Lifecycle.StaleThreshold = *o.StaleThreshold
	}
	if o.AutosaveInterval != nil {
		c.Daemons.AutosaveInterval = *o.AutosaveInterval
	}
	if o.ReapInterval != nil {
		c.Daemons.ReapInterval = *o.ReapInterval
	}
	if o.MCPEnabled != nil {
		c.MCP.Enabled = *o.MCPEnabled
	}
	if o.MCPHTTPAddr != nil {
		c.MCP.HTTPAddr = *o.MCPHTTPAddr
	}
	if o.MCPAPIKey != nil {
		c.MCP.APIKey = *o.MCPAPIKey
	}
}

// ---------------------------------------------------------------------------
// Lifecycle helpers
// ---------------------------------------------------------------------------

// WaitForShutdown blocks until an OS interrupt or termination signal is
// received, then cancels the provided context to initiate graceful shutdown.
func WaitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating shutdown...", sig)
		cancel()
	case <-ctx.Done():
	}
}

// PrintBanner prints the NukeBridge ASCII art banner to stdout.
func PrintBanner() {
	banner := `
    _   __      __        ____       _     __
   / | / /_  __/ /_____  / __ )_____(_)___/ /___ ____
  /  |/ / / / / //_/ _ \/ __  / ___/ / __  / __ '/ _ \
 / /|  / /_/ / ,< /  __/ /_/ / /  / / /_/ / /_/ /  __/
/_/ |_/\__,_/_/|_|\___/_____/_/  /_/\__,_/\__, /\___/
                                         /____/
    TCP command bridge for node-graph compositors
    ─────────────────────────────────────────────
`
	fmt.Print(banner)
}
