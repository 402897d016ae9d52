// Package mcp exposes bridge commands over the Model Context Protocol as a
// streamable HTTP endpoint, so agent tooling can drive the node graph
// without speaking the raw TCP protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	toolCreateNode  = "nuke_create_node"
	toolSetKnob     = "nuke_set_knob"
	toolGetNode     = "nuke_get_node"
	toolListNodes   = "nuke_list_nodes"
	toolRender      = "nuke_render"
	toolSendCommand = "nuke_send_command"
)

// Config controls MCP route behavior.
type Config struct {
	APIKey         string
	Stateless      bool
	RateLimitRPS   float64
	RateLimitBurst int
	EnablePrompts  bool
	AllowedTools   []string
}

// Backend is the capability contract exposed to MCP tools: one bridged
// command invocation. Failures from the bridge come back as errors.
type Backend interface {
	Dispatch(ctx context.Context, command string, args map[string]any) (map[string]any, error)
}

// NewHandler builds an MCP streamable HTTP handler with optional API-key auth
// and endpoint-local rate limiting.
func NewHandler(cfg Config, backend Backend) (http.Handler, error) {
	if backend == nil {
		return nil, fmt.Errorf("mcp backend is required")
	}

	s := mcpserver.NewMCPServer(
		"nukebridge-mcp",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(cfg.EnablePrompts),
		mcpserver.WithRecovery(),
	)

	registerTools(s, backend, cfg.AllowedTools)
	if cfg.EnablePrompts {
		registerPrompts(s)
	}

	streamable := mcpserver.NewStreamableHTTPServer(s, mcpserver.WithStateLess(cfg.Stateless))
	var h http.Handler = http.HandlerFunc(streamable.ServeHTTP)

	if strings.TrimSpace(cfg.APIKey) != "" {
		h = apiKeyMiddleware(strings.TrimSpace(cfg.APIKey), h)
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		h = rateLimitMiddleware(newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), h)
	}

	return h, nil
}

func registerTools(s *mcpserver.MCPServer, backend Backend, allowed []string) {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		name = strings.TrimSpace(name)
		if name != "" {
			allowedSet[name] = struct{}{}
		}
	}
	isAllowed := func(name string) bool {
		if len(allowedSet) == 0 {
			return true
		}
		_, ok := allowedSet[name]
		return ok
	}

	if isAllowed(toolCreateNode) {
		s.AddTool(mcpproto.NewTool(toolCreateNode,
			mcpproto.WithDescription("Create a node in the compositor's node graph."),
			mcpproto.WithString("node_type", mcpproto.Required(), mcpproto.Description("Node class, e.g. Blur, Grade, Write.")),
			mcpproto.WithString("name", mcpproto.Description("Optional node name; auto-named when omitted.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			nodeType := getString(args, "node_type", "")
			if nodeType == "" {
				return errResult("node_type is required"), nil
			}
			cmdArgs := map[string]any{"nodeType": nodeType}
			if name := getString(args, "name", ""); name != "" {
				cmdArgs["name"] = name
			}
			result, err := backend.Dispatch(ctx, "createNode", cmdArgs)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("node created", result)
		})
	}

	if isAllowed(toolSetKnob) {
		s.AddTool(mcpproto.NewTool(toolSetKnob,
			mcpproto.WithDescription("Set a knob value on a node."),
			mcpproto.WithString("node_name", mcpproto.Required(), mcpproto.Description("Target node name.")),
			mcpproto.WithString("knob_name", mcpproto.Required(), mcpproto.Description("Knob to set.")),
			mcpproto.WithString("value", mcpproto.Required(), mcpproto.Description("Value as JSON (e.g. 2.5, \"out.exr\", [1,2]).")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			nodeName := getString(args, "node_name", "")
			knobName := getString(args, "knob_name", "")
			raw := getString(args, "value", "")
			if nodeName == "" || knobName == "" || raw == "" {
				return errResult("node_name, knob_name and value are required"), nil
			}
			var value any
			if err := json.Unmarshal([]byte(raw), &value); err != nil {
				// Not JSON: treat as a plain string value.
				value = raw
			}
			result, err := backend.Dispatch(ctx, "setKnobValue", map[string]any{
				"nodeName": nodeName,
				"knobName": knobName,
				"value":    value,
			})
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("knob set", result)
		})
	}

	if isAllowed(toolGetNode) {
		s.AddTool(mcpproto.NewTool(toolGetNode,
			mcpproto.WithDescription("Get a node's class and knob values."),
			mcpproto.WithString("node_name", mcpproto.Required(), mcpproto.Description("Node name.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			nodeName := getString(args, "node_name", "")
			if nodeName == "" {
				return errResult("node_name is required"), nil
			}
			result, err := backend.Dispatch(ctx, "getNode", map[string]any{"nodeName": nodeName})
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("node fetched", result)
		})
	}

	if isAllowed(toolListNodes) {
		s.AddTool(mcpproto.NewTool(toolListNodes,
			mcpproto.WithDescription("List nodes in the graph, optionally filtered by class."),
			mcpproto.WithString("filter", mcpproto.Description("Optional node class filter.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			cmdArgs := map[string]any{}
			if filter := getString(args, "filter", ""); filter != "" {
				cmdArgs["filter"] = filter
			}
			result, err := backend.Dispatch(ctx, "listNodes", cmdArgs)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("nodes listed", result)
		})
	}

	if isAllowed(toolRender) {
		s.AddTool(mcpproto.NewTool(toolRender,
			mcpproto.WithDescription("Render a frame range through a Write node."),
			mcpproto.WithString("write_node", mcpproto.Required(), mcpproto.Description("Write node name.")),
			mcpproto.WithNumber("frame_start", mcpproto.Required(), mcpproto.Description("First frame.")),
			mcpproto.WithNumber("frame_end", mcpproto.Required(), mcpproto.Description("Last frame.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			writeNode := getString(args, "write_node", "")
			if writeNode == "" {
				return errResult("write_node is required"), nil
			}
			result, err := backend.Dispatch(ctx, "execute", map[string]any{
				"writeNodeName":   writeNode,
				"frameRangeStart": float64(getInt(args, "frame_start", 1)),
				"frameRangeEnd":   float64(getInt(args, "frame_end", 1)),
			})
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("render executed", result)
		})
	}

	if isAllowed(toolSendCommand) {
		s.AddTool(mcpproto.NewTool(toolSendCommand,
			mcpproto.WithDescription("Send a raw bridge command with a JSON argument object."),
			mcpproto.WithString("command", mcpproto.Required(), mcpproto.Description("Command name, e.g. connectNodes.")),
			mcpproto.WithString("args", mcpproto.Description("JSON object of command arguments.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			command := getString(args, "command", "")
			if command == "" {
				return errResult("command is required"), nil
			}
			var cmdArgs map[string]any
			if raw := getString(args, "args", ""); raw != "" {
				if err := json.Unmarshal([]byte(raw), &cmdArgs); err != nil {
					return errResult("args must be a valid JSON object"), nil
				}
			}
			result, err := backend.Dispatch(ctx, command, cmdArgs)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("command executed", result)
		})
	}
}

func registerPrompts(s *mcpserver.MCPServer) {
	s.AddPrompt(mcpproto.NewPrompt("nuke_build_comp",
		mcpproto.WithPromptDescription("Generate a node-graph build workflow for a compositing goal."),
		mcpproto.WithArgument("goal", mcpproto.RequiredArgument(), mcpproto.ArgumentDescription("What the comp should achieve.")),
	), func(_ context.Context, req mcpproto.GetPromptRequest) (*mcpproto.GetPromptResult, error) {
		goal := req.Params.Arguments["goal"]
		return &mcpproto.GetPromptResult{
			Description: "Node-graph build workflow",
			Messages: []mcpproto.PromptMessage{
				{
					Role: mcpproto.RoleUser,
					Content: mcpproto.TextContent{
						Type: "text",
						Text: fmt.Sprintf("Build a node graph that achieves: %q. Inspect the current graph with nuke_list_nodes, create and connect the needed nodes with nuke_create_node and nuke_send_command, set knobs with nuke_set_knob, then report the resulting node names.", goal),
					},
				},
			},
		}, nil
	})
}

func errResult(msg string) *mcpproto.CallToolResult {
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.TextContent{Type: "text", Text: "Error: " + msg},
		},
		IsError: true,
	}
}

func structuredResult(summary string, data any) (*mcpproto.CallToolResult, error) {
	blob, err := json.Marshal(data)
	if err != nil {
		return errResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.TextContent{Type: "text", Text: summary},
			mcpproto.TextContent{Type: "text", Text: string(blob)},
		},
	}, nil
}

func getString(args map[string]any, key string, def string) string {
	if args == nil {
		return def
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

func getInt(args map[string]any, key string, def int) int {
	if args == nil {
		return def
	}
	v, ok := args[key].(float64)
	if !ok {
		return def
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return int(v)
}

func apiKeyMiddleware(expected string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		provided := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if provided == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				provided = strings.TrimSpace(auth[7:])
			}
		}

		if provided == "" || provided != expected {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type rateLimitEntry struct {
	tokens float64
	last   time.Time
}

type rateLimiter struct {
	rps   float64
	burst float64

	mu      sync.Mutex
	clients map[string]rateLimitEntry
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		rps:     rps,
		burst:   float64(burst),
		clients: make(map[string]rateLimitEntry),
	}
}

func (rl *rateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.clients[key]
	if !ok {
		rl.clients[key] = rateLimitEntry{tokens: rl.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(entry.last).Seconds()
	entry.tokens = math.Min(rl.burst, entry.tokens+elapsed*rl.rps)
	entry.last = now
	if entry.tokens < 1 {
		rl.clients[key] = entry
		return false
	}
	entry.tokens -= 1
	rl.clients[key] = entry
	return true
}

func rateLimitMiddleware(rl *rateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientAddr(r)
		if !rl.allow(key) {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if strings.TrimSpace(r.RemoteAddr) != "" {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return "unknown"
}
