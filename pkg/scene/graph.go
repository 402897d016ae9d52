// Package scene holds the in-process node graph the bridge operates on: the
// stand-in for the host compositor's script state. The graph is deliberately
// not goroutine-safe — every access runs on the owning goroutine through the
// executor, which is what makes the single-threaded host contract hold.
package scene

import (
	"fmt"
	"sort"
	"time"

	"github.com/denizumutdereli/nukebridge/pkg/core"
)

// Node is one node in the graph.
type Node struct {
	Name  string
	Class string

	// Knobs are the node's parameters. Values are JSON-shaped (string,
	// float64, bool, []any, map[string]any).
	Knobs map[string]any

	// Inputs maps input slot index to the connected node's name.
	// Unconnected slots are absent.
	Inputs map[int]string

	// Node-graph position.
	XPos int
	YPos int

	// Members holds the collapsed contents of a Group node, nil otherwise.
	Members []*Node
}

// Knob returns the named knob value.
func (n *Node) Knob(name string) (any, bool) {
	v, ok := n.Knobs[name]
	return v, ok
}

// SetKnob sets a knob value, creating the knob if it does not exist yet.
func (n *Node) SetKnob(name string, value any) {
	if n.Knobs == nil {
		n.Knobs = make(map[string]any)
	}
	n.Knobs[name] = value
}

// ProjectSettings mirror the host's root settings.
type ProjectSettings struct {
	FirstFrame int
	LastFrame  int
	Width      int
	Height     int
	FPS        float64
}

// RenderRecord captures one executed render for inspection.
type RenderRecord struct {
	WriteNode  string
	FirstFrame int
	LastFrame  int
	File       string
	RenderedAt time.Time
}

// Graph is the full script state: nodes, project settings, render history.
type Graph struct {
	nodes       map[string]*Node
	order       []string // creation order, drives listing and auto-layout
	classCounts map[string]int
	settings    ProjectSettings
	renders     []RenderRecord
	version     uint64
}

// NewGraph creates an empty graph with the given project settings.
func NewGraph(settings ProjectSettings) *Graph {
	return &Graph{
		nodes:       make(map[string]*Node),
		classCounts: make(map[string]int),
		settings:    settings,
	}
}

// Version increments on every mutation; the autosave daemon uses it to skip
// snapshots of an unchanged graph.
func (g *Graph) Version() uint64 {
	return g.version
}

// CreateNode adds a node of the given class. An empty name auto-names the
// node host-style: Blur1, Blur2, ... Duplicate explicit names fail.
func (g *Graph) CreateNode(class, name string) (*Node, error) {
	if class == "" {
		return nil, fmt.Errorf("node class must not be empty")
	}

	if name == "" {
		name = g.nextName(class)
	} else if _, exists := g.nodes[name]; exists {
		return nil, fmt.Errorf("%w: %s", core.ErrDuplicateNode, name)
	}

	node := &Node{
		Name:   name,
		Class:  class,
		Knobs:  make(map[string]any),
		Inputs: make(map[int]string),
		// Stack new nodes downwards like the host's auto-layout.
		XPos: 0,
		YPos: len(g.order) * 40,
	}

	g.nodes[name] = node
	g.order = append(g.order, name)
	g.classCounts[class]++
	g.version++
	return node, nil
}

// nextName finds the first free host-style name for a class.
func (g *Graph) nextName(class string) string {
	for i := g.classCounts[class] + 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", class, i)
		if _, taken := g.nodes[candidate]; !taken {
			return candidate
		}
	}
}

// ToNode looks a node up by name.
func (g *Graph) ToNode(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// SetInput connects the named input node into the given slot of node.
func (g *Graph) SetInput(node string, index int, input string) error {
	target, ok := g.nodes[node]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNodeNotFound, node)
	}
	if _, ok := g.nodes[input]; !ok {
		return fmt.Errorf("%w: %s", core.ErrNodeNotFound, input)
	}
	if index < 0 {
		return fmt.Errorf("input index must be >= 0, got %d", index)
	}
	target.Inputs[index] = input
	g.version++
	return nil
}

// SetPosition moves a node in the graph.
func (g *Graph) SetPosition(name string, x, y int) error {
	n, ok := g.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNodeNotFound, name)
	}
	n.XPos = x
	n.YPos = y
	g.version++
	return nil
}

// Delete removes a node. Connections referencing it are dropped.
func (g *Graph) Delete(name string) error {
	n, ok := g.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNodeNotFound, name)
	}
	delete(g.nodes, name)
	for i, other := range g.order {
		if other == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	for _, other := range g.nodes {
		for slot, input := range other.Inputs {
			if input == n.Name {
				delete(other.Inputs, slot)
			}
		}
	}
	g.version++
	return nil
}

// Nodes lists nodes in creation order, optionally filtered by class.
func (g *Graph) Nodes(classFilter string) []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		n := g.nodes[name]
		if classFilter == "" || n.Class == classFilter {
			out = append(out, n)
		}
	}
	return out
}

// Count returns the number of top-level nodes.
func (g *Graph) Count() int {
	return len(g.order)
}

// Collapse moves the named member nodes into a new Group node. An empty
// group name auto-names it (Group1, Group2, ...). All members must exist.
func (g *Graph) Collapse(groupName string, members []string) (*Node, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("group requires at least one member node")
	}

	collected := make([]*Node, 0, len(members))
	for _, name := range members {
		n, ok := g.nodes[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrNodeNotFound, name)
		}
		collected = append(collected, n)
	}

	for _, n := range collected {
		if err := g.Delete(n.Name); err != nil {
			return nil, err
		}
	}

	group, err := g.CreateNode("Group", groupName)
	if err != nil {
		return nil, err
	}
	group.Members = collected
	g.version++
	return group, nil
}

// Clear removes every node and the render history, keeping project settings.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*Node)
	g.order = nil
	g.classCounts = make(map[string]int)
	g.renders = nil
	g.version++
}

// Settings returns the current project settings.
func (g *Graph) Settings() ProjectSettings {
	return g.settings
}

// SetFrameRange updates the project frame range.
func (g *Graph) SetFrameRange(first, last int) {
	g.settings.FirstFrame = first
	g.settings.LastFrame = last
	g.version++
}

// SetResolution updates the project output resolution.
func (g *Graph) SetResolution(width, height int) {
	g.settings.Width = width
	g.settings.Height = height
	g.version++
}

// SetFPS updates the project frame rate.
func (g *Graph) SetFPS(fps float64) {
	g.settings.FPS = fps
	g.version++
}

// RecordRender appends one executed render to the history.
func (g *Graph) RecordRender(rec RenderRecord) {
	g.renders = append(g.renders, rec)
	g.version++
}

// Renders returns the render history.
func (g *Graph) Renders() []RenderRecord {
	return g.renders
}

// Stats summarizes the graph for the stats command.
func (g *Graph) Stats() map[string]any {
	classes := make([]string, 0, len(g.classCounts))
	for class := range g.classCounts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	return map[string]any{
		"nodeCount":  len(g.order),
		"classes":    classes,
		"renders":    len(g.renders),
		"version":    g.version,
		"frameRange": map[string]any{"first": g.settings.FirstFrame, "last": g.settings.LastFrame},
		"resolution": map[string]any{"width": g.settings.Width, "height": g.settings.Height},
		"fps":        g.settings.FPS,
	}
}
