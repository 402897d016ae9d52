package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const replHelp = `
NukeBridge Interactive Shell — available commands:

  Node ops:
    create <type> [name]              Create a node (auto-named when name omitted)
    set <node> <knob> <value>         Set a knob (value parsed as JSON, else string)
    get <node>                        Show a node's class and knobs
    nodes [class]                     List nodes, optionally filtered by class
    link <input> <output> [slot]      Connect input node into output node
    move <node> <x> <y>               Set node position
    pos <node>                        Show node position
    group <name> <node> [node...]     Collapse nodes into a group

  Render:
    render <write-node> <start> <end> Render a frame range

  Scripts and templates:
    save <name>                       Save the graph as a script
    load <name>                       Load a script (replaces the graph)
    tsave <name> <node> [node...]     Save nodes as a template
    tload <name>                      Paste a template into the graph

  Project:
    fps <value>                       Set project frame rate
    range <first> <last>              Set project frame range
    settings                          Show project settings

  Misc:
    stats                             Bridge statistics
    raw <json>                        Send a raw request document

  Shell:
    \help                             Show this help
    \status                           Show connection info
    \quit  (or exit, quit, Ctrl-D)    Exit
`

// runREPL starts the interactive shell.
func runREPL(c *cli) {
	// Verify the server is reachable before promising a shell.
	if err := c.ensure(); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot reach %s — %v\n", c.conn.String(), err)
		os.Exit(1)
	}

	fmt.Printf("Connected to NukeBridge at %s\nType \\help for commands, \\quit to exit.\n\n", c.conn.String())

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("nuke> ")

		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if done := dispatchREPL(c, line); done {
			fmt.Println("Bye.")
			break
		}
	}
	c.close()
}

// dispatchREPL parses and executes one REPL line.
// Returns true when the user wants to quit.
func dispatchREPL(c *cli, line string) bool {
	// raw takes the rest of the line verbatim; tokenizing would strip the
	// JSON quoting.
	if rest, ok := strings.CutPrefix(line, "raw "); ok {
		if err := c.sendRaw(strings.TrimSpace(rest)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return false
	}

	parts := tokenize(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	fail := func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}

	switch cmd {
	// ── Quit ────────────────────────────────────────────────
	case `\quit`, `\q`, "exit", "quit":
		return true

	// ── Help ────────────────────────────────────────────────
	case `\help`, `\h`, "help":
		fmt.Print(replHelp)

	// ── Status ──────────────────────────────────────────────
	case `\status`:
		fmt.Printf("server:    %s\n", c.conn.String())
		fmt.Printf("connected: %v\n", c.sock != nil)

	// ── Node ops ────────────────────────────────────────────
	case "create":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: create <type> [name]")
			return false
		}
		cmdArgs := map[string]any{"nodeType": args[0]}
		if len(args) > 1 {
			cmdArgs["name"] = args[1]
		}
		fail(c.send("createNode", cmdArgs))

	case "set":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: set <node> <knob> <value>")
			return false
		}
		fail(c.send("setKnobValue", map[string]any{
			"nodeName": args[0],
			"knobName": args[1],
			"value":    parseValue(strings.Join(args[2:], " ")),
		}))

	case "get":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: get <node>")
			return false
		}
		fail(c.send("getNode", map[string]any{"nodeName": args[0]}))

	case "nodes":
		cmdArgs := map[string]any{}
		if len(args) > 0 {
			cmdArgs["filter"] = args[0]
		}
		fail(c.send("listNodes", cmdArgs))

	case "link":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: link <input> <output> [slot]")
			return false
		}
		cmdArgs := map[string]any{
			"inputNode":  args[0],
			"outputNode": args[1],
		}
		if len(args) > 2 {
			cmdArgs["inputIndex"] = parseValue(args[2])
		}
		fail(c.send("connectNodes", cmdArgs))

	case "move":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: move <node> <x> <y>")
			return false
		}
		fail(c.send("setNodePosition", map[string]any{
			"nodeName": args[0],
			"xPos":     parseValue(args[1]),
			"yPos":     parseValue(args[2]),
		}))

	case "pos":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: pos <node>")
			return false
		}
		fail(c.send("getNodePosition", map[string]any{"nodeName": args[0]}))

	case "group":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: group <name> <node> [node...]")
			return false
		}
		fail(c.send("createGroup", map[string]any{
			"name":      args[0],
			"nodeNames": toAnySlice(args[1:]),
		}))

	// ── Render ──────────────────────────────────────────────
	case "render":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: render <write-node> <start> <end>")
			return false
		}
		fail(c.send("execute", map[string]any{
			"writeNodeName":   args[0],
			"frameRangeStart": parseValue(args[1]),
			"frameRangeEnd":   parseValue(args[2]),
		}))

	// ── Scripts and templates ───────────────────────────────
	case "save":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: save <name>")
			return false
		}
		fail(c.send("saveScript", map[string]any{"filePath": args[0]}))

	case "load":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: load <name>")
			return false
		}
		fail(c.send("loadScript", map[string]any{"filePath": args[0]}))

	case "tsave":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: tsave <name> <node> [node...]")
			return false
		}
		fail(c.send("saveTemplate", map[string]any{
			"templateName": args[0],
			"nodeNames":    toAnySlice(args[1:]),
		}))

	case "tload":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: tload <name>")
			return false
		}
		fail(c.send("loadTemplate", map[string]any{"templateName": args[0]}))

	// ── Project ─────────────────────────────────────────────
	case "fps":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: fps <value>")
			return false
		}
		fail(c.send("setProjectSettings", map[string]any{"fps": parseValue(args[0])}))

	case "range":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: range <first> <last>")
			return false
		}
		fail(c.send("setProjectSettings", map[string]any{
			"frameRange": map[string]any{
				"first": parseValue(args[0]),
				"last":  parseValue(args[1]),
			},
		}))

	case "settings":
		fail(c.send("setProjectSettings", nil))

	// ── Misc ────────────────────────────────────────────────
	case "stats":
		fail(c.send("stats", nil))

	case "raw":
		fmt.Fprintln(os.Stderr, "usage: raw <json>")

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q — type \\help for available commands\n", cmd)
	}

	return false
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// tokenize splits a line into tokens respecting quoted strings.
func tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case inQuote:
			if ch == quoteChar {
				inQuote = false
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			inQuote = true
			quoteChar = ch
		case ch == ' ' || ch == '\t':
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(ch)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
