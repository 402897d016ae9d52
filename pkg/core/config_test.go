package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Defaults and hierarchy
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.ListenAddr != "127.0.0.1:8765" {
		t.Errorf("unexpected default listen addr: %s", cfg.Server.ListenAddr)
	}
	if cfg.Server.MaxConnections != 64 {
		t.Errorf("unexpected default max connections: %d", cfg.Server.MaxConnections)
	}
	if cfg.Executor.JobTimeout != 0 {
		t.Errorf("job timeout should default to no deadline, got %v", cfg.Executor.JobTimeout)
	}
	if !cfg.Storage.Compress {
		t.Error("compression should default on")
	}
	if cfg.Project.FPS != 24 {
		t.Errorf("unexpected default fps: %g", cfg.Project.FPS)
	}
	if cfg.MCP.Enabled {
		t.Error("MCP should default off")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	yaml := `
server:
  listenAddr: "0.0.0.0:9000"
storage:
  dataPath: "/var/lib/nukebridge"
lifecycle:
  idleThreshold: 10s
  staleThreshold: 1m
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	cfg, err := ConfigFromFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("file value not applied: %s", cfg.Server.ListenAddr)
	}
	if cfg.Storage.DataPath != "/var/lib/nukebridge" {
		t.Errorf("file value not applied: %s", cfg.Storage.DataPath)
	}
	if cfg.Lifecycle.IdleThreshold != 10*time.Second {
		t.Errorf("duration not parsed: %v", cfg.Lifecycle.IdleThreshold)
	}

	// Untouched fields keep their defaults.
	if cfg.Server.MaxConnections != 64 {
		t.Errorf("default lost on partial file: %d", cfg.Server.MaxConnections)
	}
}

func TestConfigFromFileMissing(t *testing.T) {
	if _, err := ConfigFromFile("/no/such/file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("NUKEBRIDGE_LISTEN_ADDR", "127.0.0.1:9999")
	t.Setenv("NUKEBRIDGE_MAX_CONNECTIONS", "8")
	t.Setenv("NUKEBRIDGE_COMPRESS", "false")
	t.Setenv("NUKEBRIDGE_AUTOSAVE_INTERVAL", "45s")
	t.Setenv("NUKEBRIDGE_PROJECT_FPS", "25")
	t.Setenv("NUKEBRIDGE_MCP_ALLOWED_TOOLS", "nuke_create_node, nuke_render")

	cfg := ConfigFromEnv(nil)

	if cfg.Server.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("env string not applied: %s", cfg.Server.ListenAddr)
	}
	if cfg.Server.MaxConnections != 8 {
		t.Errorf("env int not applied: %d", cfg.Server.MaxConnections)
	}
	if cfg.Storage.Compress {
		t.Error("env bool not applied")
	}
	if cfg.Daemons.AutosaveInterval != 45*time.Second {
		t.Errorf("env duration not applied: %v", cfg.Daemons.AutosaveInterval)
	}
	if cfg.Project.FPS != 25 {
		t.Errorf("env float not applied: %g", cfg.Project.FPS)
	}
	if len(cfg.MCP.AllowedTools) != 2 || cfg.MCP.AllowedTools[0] != "nuke_create_node" {
		t.Errorf("env csv not applied: %v", cfg.MCP.AllowedTools)
	}
}

func TestEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("NUKEBRIDGE_MAX_CONNECTIONS", "not-a-number")
	cfg := ConfigFromEnv(nil)
	if cfg.Server.MaxConnections != 64 {
		t.Errorf("garbage env value replaced default: %d", cfg.Server.MaxConnections)
	}
}

func TestApplyCLIOverrides(t *testing.T) {
	cfg := DefaultConfig()

	addr := "0.0.0.0:7000"
	conns := 4
	timeout := 5 * time.Second
	cfg.ApplyCLIOverrides(&CLIOverrides{
		ListenAddr:     &addr,
		MaxConnections: &conns,
		JobTimeout:     &timeout,
	})

	if cfg.Server.ListenAddr != addr {
		t.Errorf("override not applied: %s", cfg.Server.ListenAddr)
	}
	if cfg.Server.MaxConnections != 4 {
		t.Errorf("override not applied: %d", cfg.Server.MaxConnections)
	}
	if cfg.Executor.JobTimeout != timeout {
		t.Errorf("override not applied: %v", cfg.Executor.JobTimeout)
	}

	// Nil fields leave resolved values alone.
	if cfg.Storage.DataPath != "./data" {
		t.Errorf("unset override clobbered value: %s", cfg.Storage.DataPath)
	}
	cfg.ApplyCLIOverrides(nil)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateRejectsBadValues(t *testing.T) {
	mutations := []func(*Config){
		func(c *Config) { c.Server.ListenAddr = "" },
		func(c *Config) { c.Server.MaxConnections = 0 },
		func(c *Config) { c.Server.MaxLineBytes = 100 },
		func(c *Config) { c.Executor.QueueSize = 0 },
		func(c *Config) { c.Storage.DataPath = "" },
		func(c *Config) { c.Lifecycle.IdleThreshold = 0 },
		func(c *Config) { c.Lifecycle.StaleThreshold = c.Lifecycle.IdleThreshold },
		func(c *Config) { c.Daemons.AutosaveInterval = -time.Second },
		func(c *Config) { c.Project.LastFrame = c.Project.FirstFrame - 1 },
		func(c *Config) { c.Project.FPS = 0 },
		func(c *Config) { c.MCP.Path = "mcp" },
		func(c *Config) { c.MCP.RateLimitRPS = -1 },
		func(c *Config) { c.MCP.AllowedTools = []string{"nuke_delete_everything"} },
	}

	for i, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("mutation %d should have failed validation", i)
		}
	}
}

func TestValidateNormalizesMCPPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MCP.Path = "/mcp///"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.MCP.Path != "/mcp" {
		t.Errorf("path not normalized: %q", cfg.MCP.Path)
	}
}

func TestValidateDedupsAllowedTools(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MCP.AllowedTools = []string{"nuke_render", " nuke_render ", "nuke_get_node"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if len(cfg.MCP.AllowedTools) != 2 {
		t.Errorf("tools not deduplicated: %v", cfg.MCP.AllowedTools)
	}
}

func TestValidateMCPRequiresKeyInProduction(t *testing.T) {
	t.Setenv("NUKEBRIDGE_ENV", "production")

	cfg := DefaultConfig()
	cfg.MCP.Enabled = true
	cfg.MCP.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure for keyless MCP in production")
	}

	cfg.MCP.APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate failed with key set: %v", err)
	}
}

func TestLoadConfigHierarchy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listenAddr: \"file:1111\"\n  maxConnections: 10\n"), 0644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	// Env beats file.
	t.Setenv("NUKEBRIDGE_LISTEN_ADDR", "env:2222")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.ListenAddr != "env:2222" {
		t.Errorf("env should override file: %s", cfg.Server.ListenAddr)
	}
	if cfg.Server.MaxConnections != 10 {
		t.Errorf("file should override default: %d", cfg.Server.MaxConnections)
	}
}
