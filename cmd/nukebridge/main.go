package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/denizumutdereli/nukebridge/pkg/commands"
	"github.com/denizumutdereli/nukebridge/pkg/core"
	"github.com/denizumutdereli/nukebridge/pkg/daemon"
	"github.com/denizumutdereli/nukebridge/pkg/executor"
	"github.com/denizumutdereli/nukebridge/pkg/lifecycle"
	"github.com/denizumutdereli/nukebridge/pkg/mcp"
	"github.com/denizumutdereli/nukebridge/pkg/persistence"
	"github.com/denizumutdereli/nukebridge/pkg/protocol"
	"github.com/denizumutdereli/nukebridge/pkg/registry"
	"github.com/denizumutdereli/nukebridge/pkg/scene"
	"github.com/denizumutdereli/nukebridge/pkg/server"
)

func main() {
	var cliOverrides core.CLIOverrides

	rootCmd := &cobra.Command{
		Use:   "nukebridge",
		Short: "NukeBridge - TCP command bridge for node-graph compositors",
		Long:  "A concurrent TCP/JSON bridge that exposes a single-threaded node-graph scripting engine to many clients, funnelling every command through one owning thread.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), &cliOverrides)
		},
		SilenceUsage: true,
	}

	// CLI flags - highest priority in the config hierarchy.
	f := rootCmd.Flags()

	cliOverrides.ConfigPath = f.StringP("config", "f", "", "Path to YAML config file (overrides NUKEBRIDGE_CONFIG env)")
	cliOverrides.ListenAddr = f.String("listen-addr", "", "TCP listen address")
	cliOverrides.MaxConnections = f.Int("max-connections", 0, "Maximum concurrent client connections")
	cliOverrides.DataPath = f.String("data-path", "", "Data directory for .nkb script files")
	cliOverrides.ToolsetPath = f.String("toolset-path", "", "Directory for saved node templates")
	cliOverrides.Compress = f.Bool("compress", false, "Enable gzip compression inside .nkb files")
	cliOverrides.JobTimeout = f.Duration("job-timeout", 0, "Per-command deadline (0 = none)")
	cliOverrides.IdleThreshold = f.Duration("idle-threshold", 0, "Quiet time before a connection goes idle")
	cliOverrides.StaleThreshold = f.Duration("stale-threshold", 0, "Idle time before a connection goes stale")
	cliOverrides.AutosaveInterval = f.Duration("autosave-interval", 0, "Graph autosave interval (0 = disabled)")
	cliOverrides.ReapInterval = f.Duration("reap-interval", 0, "Stale connection reap interval (0 = disabled)")

	// MCP flags
	cliOverrides.MCPEnabled = f.Bool("mcp", false, "Enable the MCP HTTP endpoint")
	cliOverrides.MCPHTTPAddr = f.String("mcp-http-addr", "", "MCP HTTP listen address")
	cliOverrides.MCPAPIKey = f.String("mcp-api-key", "", "MCP API key")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run implements the server startup sequence after CLI flags are parsed.
func run(flags *pflag.FlagSet, cliOverrides *core.CLIOverrides) error {
	core.PrintBanner()

	// Resolve config path: --config flag > NUKEBRIDGE_CONFIG env var
	configPath := ""
	if cliOverrides.ConfigPath != nil && *cliOverrides.ConfigPath != "" {
		configPath = *cliOverrides.ConfigPath
	} else {
		configPath = os.Getenv("NUKEBRIDGE_CONFIG")
	}

	// Load config through hierarchy: defaults -> YAML -> env vars
	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI flag overrides (only flags that were explicitly set)
	applyExplicitFlags(flags, cfg, cliOverrides)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log.Printf("Data path: %s", cfg.Storage.DataPath)
	log.Printf("TCP: %s", cfg.Server.ListenAddr)

	// Initialize persistence store
	store, err := persistence.NewStore(cfg.Storage.DataPath, cfg.Storage.ToolsetPath, cfg.Storage.Compress)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	log.Println("Persistence store initialized")

	// Initialize the graph; a previous autosave wins over the config defaults.
	graph := scene.NewGraph(scene.ProjectSettings{
		FirstFrame: cfg.Project.FirstFrame,
		LastFrame:  cfg.Project.LastFrame,
		Width:      cfg.Project.Width,
		Height:     cfg.Project.Height,
		FPS:        cfg.Project.FPS,
	})
	if snap, err := store.LoadAutosave(); err == nil {
		graph.Restore(snap)
		log.Printf("Recovered autosave (%d nodes)", graph.Count())
	}

	// Initialize the owning-thread executor; the pump runs on this goroutine
	// at the bottom of this function.
	exec := executor.New(cfg.Executor.QueueSize, cfg.Executor.JobTimeout)

	// Register the command catalog
	reg := registry.New()
	catalog := commands.NewCatalog(graph, store)
	catalog.AddStatsSource("executor", exec.Stats)
	if err := catalog.RegisterAll(reg); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	log.Printf("Command catalog registered (%d commands)", reg.Len())

	// Initialize lifecycle manager
	lm := lifecycle.NewManager(cfg.Lifecycle.IdleThreshold, cfg.Lifecycle.StaleThreshold)
	lm.SetCallbacks(
		func(connID string) {
			log.Printf("Connection %s is idle", connID)
		},
		func(connID string) {
			log.Printf("Connection %s is stale, eligible for reaping", connID)
		},
	)
	lm.StartMonitor(10 * time.Second)
	log.Println("Lifecycle manager initialized")

	// Initialize TCP server
	srv := server.New(cfg.Server, reg, exec, lm)
	catalog.AddStatsSource("server", srv.Stats)
	catalog.AddStatsSource("lifecycle", lm.Stats)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Initialize daemon manager with config-driven intervals
	daemons := daemon.NewDaemonManager(
		exec, lm, store, graph, srv,
		cfg.Daemons.AutosaveInterval, cfg.Daemons.ReapInterval,
	)
	daemons.Start()
	catalog.AddStatsSource("daemons", daemons.Stats)
	log.Println("Background daemons started")

	// Optional MCP endpoint
	var mcpServer *http.Server
	if cfg.MCP.Enabled {
		handler, err := mcp.NewHandler(mcp.Config{
			APIKey:         cfg.MCP.APIKey,
			Stateless:      cfg.MCP.Stateless,
			RateLimitRPS:   cfg.MCP.RateLimitRPS,
			RateLimitBurst: cfg.MCP.RateLimitBurst,
			EnablePrompts:  cfg.MCP.EnablePrompts,
			AllowedTools:   cfg.MCP.AllowedTools,
		}, &bridgeBackend{exec: exec, reg: reg})
		if err != nil {
			return fmt.Errorf("failed to build MCP handler: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle(cfg.MCP.Path, handler)
		mcpServer = &http.Server{Addr: cfg.MCP.HTTPAddr, Handler: mux}
		go func() {
			log.Printf("MCP endpoint on %s%s", cfg.MCP.HTTPAddr, cfg.MCP.Path)
			if err := mcpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("MCP server error: %v", err)
			}
		}()
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	go core.WaitForShutdown(ctx, cancel)

	// Shutdown sequence runs off-thread; stopping the executor is what
	// releases the pump below.
	go func() {
		<-ctx.Done()
		log.Println("Initiating graceful shutdown...")

		if err := srv.Stop(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		daemons.Stop()
		lm.Stop()

		if mcpServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := mcpServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("MCP shutdown error: %v", err)
			}
			shutdownCancel()
		}

		exec.Stop()
	}()

	log.Println("NukeBridge is ready!")
	log.Println("--------------------------------------------")

	// This goroutine is the owning thread: every command in the system
	// executes here, one at a time, until shutdown.
	if err := exec.Run(); err != nil {
		return fmt.Errorf("executor error: %w", err)
	}

	log.Println("NukeBridge shutdown complete")
	return nil
}

// bridgeBackend adapts the executor plus registry to the MCP tool contract.
type bridgeBackend struct {
	exec *executor.MainThread
	reg  *registry.Registry
}

func (b *bridgeBackend) Dispatch(_ context.Context, command string, args map[string]any) (map[string]any, error) {
	resp := b.exec.Submit(func() protocol.Response {
		return b.reg.Dispatch(command, args)
	})
	if resp.Failed() {
		return nil, errors.New(resp.ErrorMessage())
	}
	return map[string]any(resp), nil
}

// applyExplicitFlags applies only the CLI flags that were explicitly set
// by the user on the command line. Unset flags are ignored so they do not
// override values resolved from YAML or environment variables.
func applyExplicitFlags(flags *pflag.FlagSet, cfg *core.Config, o *core.CLIOverrides) {
	overrides := core.CLIOverrides{}

	if flags.Changed("listen-addr") {
		overrides.ListenAddr = o.ListenAddr
	}
	if flags.Changed("max-connections") {
		overrides.MaxConnections = o.MaxConnections
	}
	if flags.Changed("data-path") {
		overrides.DataPath = o.DataPath
	}
	if flags.Changed("toolset-path") {
		overrides.ToolsetPath = o.ToolsetPath
	}
	if flags.Changed("compress") {
		overrides.Compress = o.Compress
	}
	if flags.Changed("job-timeout") {
		overrides.JobTimeout = o.JobTimeout
	}
	if flags.Changed("idle-threshold") {
		overrides.IdleThreshold = o.IdleThreshold
	}
	if flags.Changed("stale-threshold") {
		overrides.StaleThreshold = o.StaleThreshold
	}
	if flags.Changed("autosave-interval") {
		overrides.AutosaveInterval = o.AutosaveInterval
	}
	if flags.Changed("reap-interval") {
		overrides.ReapInterval = o.ReapInterval
	}
	if flags.Changed("mcp") {
		overrides.MCPEnabled = o.MCPEnabled
	}
	if flags.Changed("mcp-http-addr") {
		overrides.MCPHTTPAddr = o.MCPHTTPAddr
	}
	if flags.Changed("mcp-api-key") {
		overrides.MCPAPIKey = o.MCPAPIKey
	}

	cfg.ApplyCLIOverrides(&overrides)
}
