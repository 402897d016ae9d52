package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/denizumutdereli/nukebridge/pkg/core"
	"github.com/denizumutdereli/nukebridge/pkg/protocol"
	"github.com/spf13/cobra"
)

// cli holds the shared state for all subcommands: the parsed connection
// string and one lazily-dialed TCP connection, reused across REPL lines.
type cli struct {
	conn    *core.ConnInfo
	sock    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

func main() {
	var connectStr string
	var interactive bool

	c := &cli{timeout: 30 * time.Second}

	rootCmd := &cobra.Command{
		Use:   "nukebridge-cli",
		Short: "NukeBridge CLI — interactive client for NukeBridge servers",
		Long:  "A command-line client speaking the bridge's line-delimited JSON protocol, similar to redis-cli.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if connectStr == "" {
				connectStr = os.Getenv("NUKEBRIDGE_URL")
			}
			if connectStr == "" {
				connectStr = "nuke://localhost:8765"
			}
			info, err := core.ParseConnString(connectStr)
			if err != nil {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			c.conn = info
			return nil
		},
		// When called with no subcommand, drop into interactive shell.
		RunE: func(cmd *cobra.Command, args []string) error {
			runREPL(c)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&connectStr, "connect", "", "Connection string (nuke://host[:port])")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start interactive shell (default when no subcommand given)")

	// ── Node ops ────────────────────────────────────────────
	createCmd := &cobra.Command{
		Use:   "create [node-type]",
		Short: "Create a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdArgs := map[string]any{"nodeType": args[0]}
			if name, _ := cmd.Flags().GetString("name"); name != "" {
				cmdArgs["name"] = name
			}
			return c.send("createNode", cmdArgs)
		},
	}
	createCmd.Flags().String("name", "", "Node name (auto-named when omitted)")
	rootCmd.AddCommand(createCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "set [node] [knob] [value]",
		Short: "Set a knob value (value parsed as JSON, else taken as string)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send("setKnobValue", map[string]any{
				"nodeName": args[0],
				"knobName": args[1],
				"value":    parseValue(args[2]),
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "get [node]",
		Short: "Show a node's class and knobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send("getNode", map[string]any{"nodeName": args[0]})
		},
	})

	nodesCmd := &cobra.Command{
		Use:   "nodes",
		Short: "List nodes in the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdArgs := map[string]any{}
			if filter, _ := cmd.Flags().GetString("filter"); filter != "" {
				cmdArgs["filter"] = filter
			}
			return c.send("listNodes", cmdArgs)
		},
	}
	nodesCmd.Flags().String("filter", "", "Filter by node class")
	rootCmd.AddCommand(nodesCmd)

	connectCmd := &cobra.Command{
		Use:   "link [input-node] [output-node]",
		Short: "Connect one node into another's input",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, _ := cmd.Flags().GetInt("input-index")
			return c.send("connectNodes", map[string]any{
				"inputNode":  args[0],
				"outputNode": args[1],
				"inputIndex": index,
			})
		},
	}
	connectCmd.Flags().Int("input-index", 0, "Input slot on the output node")
	rootCmd.AddCommand(connectCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "move [node] [x] [y]",
		Short: "Set a node's position in the graph",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send("setNodePosition", map[string]any{
				"nodeName": args[0],
				"xPos":     parseValue(args[1]),
				"yPos":     parseValue(args[2]),
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "render [write-node] [start] [end]",
		Short: "Render a frame range through a Write node",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send("execute", map[string]any{
				"writeNodeName":   args[0],
				"frameRangeStart": parseValue(args[1]),
				"frameRangeEnd":   parseValue(args[2]),
			})
		},
	})

	// ── Script ops ──────────────────────────────────────────
	rootCmd.AddCommand(&cobra.Command{
		Use:   "save [name]",
		Short: "Save the current graph as a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send("saveScript", map[string]any{"filePath": args[0]})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "load [name]",
		Short: "Load a saved script, replacing the current graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send("loadScript", map[string]any{"filePath": args[0]})
		},
	})

	// ── Stats / raw ─────────────────────────────────────────
	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show bridge statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send("stats", nil)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "raw [json]",
		Short: "Send a raw request document, e.g. '{\"type\":\"listNodes\"}'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.sendRaw(args[0])
		},
	})

	// --interactive flag explicitly requested
	rootCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if interactive {
			runREPL(c)
			os.Exit(0)
		}
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	c.close()
}

// ── Wire helpers ────────────────────────────────────────────

// ensure dials the bridge if no connection is live yet.
func (c *cli) ensure() error {
	if c.sock != nil {
		return nil
	}
	sock, err := net.DialTimeout("tcp", c.conn.Addr(), c.timeout)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	c.sock = sock
	c.reader = bufio.NewReader(sock)
	return nil
}

func (c *cli) close() {
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
		c.reader = nil
	}
}

// send encodes one command, writes it as a line and prints the one-line
// JSON answer pretty-printed.
func (c *cli) send(cmdType string, args map[string]any) error {
	cmd := protocol.Command{Type: cmdType, Args: args}
	data, err := cmd.Encode()
	if err != nil {
		return err
	}
	return c.roundTrip(data)
}

// sendRaw writes a caller-provided request document verbatim.
func (c *cli) sendRaw(doc string) error {
	return c.roundTrip([]byte(doc))
}

func (c *cli) roundTrip(line []byte) error {
	if err := c.ensure(); err != nil {
		return err
	}

	c.sock.SetDeadline(time.Now().Add(c.timeout))
	if _, err := c.sock.Write(append(line, '\n')); err != nil {
		c.close()
		return fmt.Errorf("write failed: %w", err)
	}

	answer, err := c.reader.ReadBytes('\n')
	if err != nil {
		c.close()
		return fmt.Errorf("read failed: %w", err)
	}

	resp, err := protocol.DecodeResponse(answer)
	if err != nil {
		fmt.Println(string(answer))
		return nil
	}

	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))

	if resp.Failed() {
		return fmt.Errorf("command failed: %s", resp.ErrorMessage())
	}
	return nil
}

// parseValue interprets a CLI argument as JSON when possible, otherwise as a
// plain string. Numbers therefore arrive as numbers on the wire.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
