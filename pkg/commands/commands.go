// Package commands implements the bridge's command catalog: the handlers
// clients invoke over the wire. Handlers run exclusively on the owning
// goroutine (dispatched through the executor), so they touch the graph
// without locking. Each handler validates its required fields up front and
// answers in the flat JSON shapes established by the protocol.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/denizumutdereli/nukebridge/pkg/persistence"
	"github.com/denizumutdereli/nukebridge/pkg/protocol"
	"github.com/denizumutdereli/nukebridge/pkg/registry"
	"github.com/denizumutdereli/nukebridge/pkg/scene"
)

// StatsSource contributes one named section to the stats command.
type StatsSource func() map[string]any

// Catalog binds the command handlers to their graph and store.
type Catalog struct {
	graph   *scene.Graph
	store   *persistence.Store
	sources map[string]StatsSource
}

// NewCatalog creates a catalog operating on the given graph and store.
func NewCatalog(graph *scene.Graph, store *persistence.Store) *Catalog {
	return &Catalog{
		graph:   graph,
		store:   store,
		sources: make(map[string]StatsSource),
	}
}

// AddStatsSource registers an extra section for the stats command, keyed by
// section name. Call before RegisterAll.
func (c *Catalog) AddStatsSource(name string, fn StatsSource) {
	c.sources[name] = fn
}

// RegisterAll registers every command in the catalog.
func (c *Catalog) RegisterAll(reg *registry.Registry) error {
	handlers := map[string]registry.HandlerFn{
		"createNode":         c.createNode,
		"setKnobValue":       c.setKnobValue,
		"getNode":            c.getNode,
		"execute":            c.execute,
		"connectNodes":       c.connectNodes,
		"setNodePosition":    c.setNodePosition,
		"getNodePosition":    c.getNodePosition,
		"createGroup":        c.createGroup,
		"listNodes":          c.listNodes,
		"loadTemplate":       c.loadTemplate,
		"saveTemplate":       c.saveTemplate,
		"loadScript":         c.loadScript,
		"saveScript":         c.saveScript,
		"setProjectSettings": c.setProjectSettings,
		"batchProcess":       c.batchProcess,
		"stats":              c.stats,
	}

	for name, h := range handlers {
		if err := reg.Register(name, h); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) createNode(args map[string]any) protocol.Response {
	nodeType := protocol.GetString(args, "nodeType", "")
	name := protocol.GetString(args, "name", "")
	inputs := protocol.GetStringSlice(args, "inputs")

	if nodeType == "" {
		return protocol.Failure("nodeType is required")
	}

	node, err := c.graph.CreateNode(nodeType, name)
	if err != nil {
		return protocol.Failure(err.Error())
	}

	for i, inputName := range inputs {
		if _, ok := c.graph.ToNode(inputName); !ok {
			return protocol.Failure(fmt.Sprintf("Input node '%s' not found", inputName))
		}
		if err := c.graph.SetInput(node.Name, i, inputName); err != nil {
			return protocol.Failure(err.Error())
		}
	}

	return protocol.Success(map[string]any{
		"node": map[string]any{
			"name": node.Name,
			"type": nodeType,
		},
	})
}

func (c *Catalog) setKnobValue(args map[string]any) protocol.Response {
	nodeName := protocol.GetString(args, "nodeName", "")
	knobName := protocol.GetString(args, "knobName", "")

	if nodeName == "" {
		return protocol.Failure("nodeName is required")
	}
	if knobName == "" {
		return protocol.Failure("knobName is required")
	}
	if !protocol.Has(args, "value") {
		return protocol.Failure("value is required")
	}
	value := args["value"]

	node, ok := c.graph.ToNode(nodeName)
	if !ok {
		return protocol.Failure(fmt.Sprintf("Node '%s' not found", nodeName))
	}
	node.SetKnob(knobName, value)

	return protocol.Success(map[string]any{
		"node":  nodeName,
		"knob":  knobName,
		"value": value,
	})
}

func (c *Catalog) getNode(args map[string]any) protocol.Response {
	nodeName := protocol.GetString(args, "nodeName", "")
	if nodeName == "" {
		return protocol.Failure("nodeName is required")
	}

	node, ok := c.graph.ToNode(nodeName)
	if !ok {
		return protocol.Failure(fmt.Sprintf("Node '%s' not found", nodeName))
	}

	knobs := make(map[string]any, len(node.Knobs))
	for k, v := range node.Knobs {
		knobs[k] = v
	}

	return protocol.Success(map[string]any{
		"node": map[string]any{
			"name":  node.Name,
			"type":  node.Class,
			"knobs": knobs,
		},
	})
}

func (c *Catalog) execute(args map[string]any) protocol.Response {
	writeNodeName := protocol.GetString(args, "writeNodeName", "")
	if writeNodeName == "" {
		return protocol.Failure("writeNodeName is required")
	}
	if !protocol.Has(args, "frameRangeStart") {
		return protocol.Failure("frameRangeStart is required")
	}
	if !protocol.Has(args, "frameRangeEnd") {
		return protocol.Failure("frameRangeEnd is required")
	}

	node, ok := c.graph.ToNode(writeNodeName)
	if !ok {
		return protocol.Failure(fmt.Sprintf("Write node '%s' not found", writeNodeName))
	}
	if node.Class != "Write" {
		return protocol.Failure(fmt.Sprintf("Node '%s' is not a Write node", writeNodeName))
	}

	start := protocol.GetInt(args, "frameRangeStart", 0)
	end := protocol.GetInt(args, "frameRangeEnd", 0)
	file := protocol.GetString(node.Knobs, "file", "")

	c.graph.RecordRender(scene.RenderRecord{
		WriteNode:  writeNodeName,
		FirstFrame: start,
		LastFrame:  end,
		File:       file,
		RenderedAt: time.Now(),
	})

	return protocol.Success(map[string]any{
		"writeNode": writeNodeName,
		"frameRange": map[string]any{
			"start": args["frameRangeStart"],
			"end":   args["frameRangeEnd"],
		},
	})
}

func (c *Catalog) connectNodes(args map[string]any) protocol.Response {
	inputNode := protocol.GetString(args, "inputNode", "")
	outputNode := protocol.GetString(args, "outputNode", "")
	inputIndex := protocol.GetInt(args, "inputIndex", 0)

	if inputNode == "" {
		return protocol.Failure("inputNode is required")
	}
	if outputNode == "" {
		return protocol.Failure("outputNode is required")
	}

	if _, ok := c.graph.ToNode(inputNode); !ok {
		return protocol.Failure(fmt.Sprintf("Input node '%s' not found", inputNode))
	}
	if _, ok := c.graph.ToNode(outputNode); !ok {
		return protocol.Failure(fmt.Sprintf("Output node '%s' not found", outputNode))
	}

	if err := c.graph.SetInput(outputNode, inputIndex, inputNode); err != nil {
		return protocol.Failure(err.Error())
	}

	return protocol.Success(map[string]any{
		"inputNode":  inputNode,
		"outputNode": outputNode,
		"inputIndex": inputIndex,
	})
}

func (c *Catalog) setNodePosition(args map[string]any) protocol.Response {
	nodeName := protocol.GetString(args, "nodeName", "")
	if nodeName == "" {
		return protocol.Failure("nodeName is required")
	}
	if !protocol.Has(args, "xPos") {
		return protocol.Failure("xPos is required")
	}
	if !protocol.Has(args, "yPos") {
		return protocol.Failure("yPos is required")
	}

	x := protocol.GetInt(args, "xPos", 0)
	y := protocol.GetInt(args, "yPos", 0)

	if _, ok := c.graph.ToNode(nodeName); !ok {
		return protocol.Failure(fmt.Sprintf("Node '%s' not found", nodeName))
	}
	if err := c.graph.SetPosition(nodeName, x, y); err != nil {
		return protocol.Failure(err.Error())
	}

	return protocol.Success(map[string]any{
		"node": nodeName,
		"position": map[string]any{
			"x": x,
			"y": y,
		},
	})
}

func (c *Catalog) getNodePosition(args map[string]any) protocol.Response {
	nodeName := protocol.GetString(args, "nodeName", "")
	if nodeName == "" {
		return protocol.Failure("nodeName is required")
	}

	node, ok := c.graph.ToNode(nodeName)
	if !ok {
		return protocol.Failure(fmt.Sprintf("Node '%s' not found", nodeName))
	}

	return protocol.Success(map[string]any{
		"node": nodeName,
		"position": map[string]any{
			"x": node.XPos,
			"y": node.YPos,
		},
	})
}

func (c *Catalog) createGroup(args map[string]any) protocol.Response {
	name := protocol.GetString(args, "name", "")
	nodeNames := protocol.GetStringSlice(args, "nodeNames")

	for _, nodeName := range nodeNames {
		if _, ok := c.graph.ToNode(nodeName); !ok {
			return protocol.Failure(fmt.Sprintf("Node '%s' not found", nodeName))
		}
	}

	group, err := c.graph.Collapse(name, nodeNames)
	if err != nil {
		return protocol.Failure(err.Error())
	}

	return protocol.Success(map[string]any{
		"group": map[string]any{
			"name":  group.Name,
			"nodes": nodeNames,
		},
	})
}

func (c *Catalog) listNodes(args map[string]any) protocol.Response {
	filter := protocol.GetString(args, "filter", "")

	nodes := c.graph.Nodes(filter)
	out := make([]any, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, map[string]any{
			"name": node.Name,
			"type": node.Class,
			"position": map[string]any{
				"x": node.XPos,
				"y": node.YPos,
			},
		})
	}

	return protocol.Success(map[string]any{
		"count": len(out),
		"nodes": out,
	})
}

// loadTemplate pastes a stored template into the graph. Pasted nodes keep
// their names when free and are auto-renamed on collision; internal
// connections are remapped to the final names.
func (c *Catalog) loadTemplate(args map[string]any) protocol.Response {
	templateName := protocol.GetString(args, "templateName", "")
	position := protocol.GetMap(args, "position")

	if templateName == "" {
		return protocol.Failure("templateName is required")
	}

	snap, err := c.store.LoadTemplate(templateName)
	if err != nil {
		return protocol.Failure(fmt.Sprintf("Template '%s' not found in ToolSets", templateName))
	}

	xOff := protocol.GetInt(position, "x", 0)
	yOff := protocol.GetInt(position, "y", 0)

	renamed := make(map[string]string, len(snap.Nodes))
	pasted := make([]string, 0, len(snap.Nodes))

	for i := range snap.Nodes {
		sn := &snap.Nodes[i]
		name := sn.Name
		if _, taken := c.graph.ToNode(name); taken {
			name = ""
		}
		node, err := c.graph.CreateNode(sn.Class, name)
		if err != nil {
			return protocol.Failure(err.Error())
		}
		for k, v := range sn.Knobs {
			node.SetKnob(k, v)
		}
		node.XPos = sn.XPos + xOff
		node.YPos = sn.YPos + yOff
		renamed[sn.Name] = node.Name
		pasted = append(pasted, node.Name)
	}

	for i := range snap.Nodes {
		sn := &snap.Nodes[i]
		for slot, input := range sn.Inputs {
			target, ok := renamed[input]
			if !ok {
				continue // connection pointed outside the template
			}
			if err := c.graph.SetInput(renamed[sn.Name], slot, target); err != nil {
				return protocol.Failure(err.Error())
			}
		}
	}

	return protocol.Success(map[string]any{
		"template": templateName,
		"nodes":    pasted,
	})
}

func (c *Catalog) saveTemplate(args map[string]any) protocol.Response {
	templateName := protocol.GetString(args, "templateName", "")
	nodeNames := protocol.GetStringSlice(args, "nodeNames")
	category := protocol.GetString(args, "category", "")

	if templateName == "" {
		return protocol.Failure("templateName is required")
	}
	if len(nodeNames) == 0 {
		return protocol.Failure("nodeNames is required")
	}

	selected := make(map[string]bool, len(nodeNames))
	for _, nodeName := range nodeNames {
		if _, ok := c.graph.ToNode(nodeName); !ok {
			return protocol.Failure(fmt.Sprintf("Node '%s' not found", nodeName))
		}
		selected[nodeName] = true
	}

	// Template snapshots carry only the selected nodes, with connections to
	// unselected nodes stripped.
	full := c.graph.Snapshot(templateName)
	partial := &scene.Snapshot{
		Name:     templateName,
		Settings: full.Settings,
		Version:  full.Version,
		SavedAt:  full.SavedAt,
	}
	for _, sn := range full.Nodes {
		if !selected[sn.Name] {
			continue
		}
		kept := sn
		kept.Inputs = make(map[int]string, len(sn.Inputs))
		for slot, input := range sn.Inputs {
			if selected[input] {
				kept.Inputs[slot] = input
			}
		}
		partial.Nodes = append(partial.Nodes, kept)
	}

	if err := c.store.SaveTemplate(partial, category); err != nil {
		return protocol.Failure(err.Error())
	}

	return protocol.Success(map[string]any{
		"template": map[string]any{
			"name":     templateName,
			"category": category,
			"path":     c.store.TemplatePath(category, templateName),
			"nodes":    nodeNames,
		},
	})
}

func (c *Catalog) loadScript(args map[string]any) protocol.Response {
	filePath := protocol.GetString(args, "filePath", "")
	if filePath == "" {
		return protocol.Failure("filePath is required")
	}

	snap, err := c.store.LoadScript(scriptName(filePath))
	if err != nil {
		return protocol.Failure(fmt.Sprintf("Script file '%s' does not exist", filePath))
	}

	c.graph.Restore(snap)

	return protocol.Success(map[string]any{
		"script": filePath,
	})
}

func (c *Catalog) saveScript(args map[string]any) protocol.Response {
	filePath := protocol.GetString(args, "filePath", "")
	if filePath == "" {
		return protocol.Failure("filePath is required")
	}

	snap := c.graph.Snapshot(scriptName(filePath))
	if err := c.store.SaveScript(snap); err != nil {
		return protocol.Failure(err.Error())
	}

	return protocol.Success(map[string]any{
		"script": filePath,
	})
}

// scriptName strips any directory and extension; scripts live in the store
// by bare name.
func scriptName(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (c *Catalog) setProjectSettings(args map[string]any) protocol.Response {
	frameRange := protocol.GetMap(args, "frameRange")
	resolution := protocol.GetMap(args, "resolution")

	if frameRange != nil {
		settings := c.graph.Settings()
		first := protocol.GetInt(frameRange, "first", settings.FirstFrame)
		last := protocol.GetInt(frameRange, "last", settings.LastFrame)
		c.graph.SetFrameRange(first, last)
	}

	if resolution != nil && protocol.Has(resolution, "width") && protocol.Has(resolution, "height") {
		width := protocol.GetInt(resolution, "width", 0)
		height := protocol.GetInt(resolution, "height", 0)
		c.graph.SetResolution(width, height)
	}

	if protocol.Has(args, "fps") {
		c.graph.SetFPS(protocol.GetFloat(args, "fps", 0))
	}

	settings := c.graph.Settings()
	return protocol.Success(map[string]any{
		"settings": map[string]any{
			"frameRange": map[string]any{
				"first": settings.FirstFrame,
				"last":  settings.LastFrame,
			},
			"resolution": map[string]any{
				"width":  settings.Width,
				"height": settings.Height,
			},
			"fps": settings.FPS,
		},
	})
}

// batchProcess runs every file matching the pattern through a copy pass into
// the output directory and records one render per file.
func (c *Catalog) batchProcess(args map[string]any) protocol.Response {
	inputDirectory := protocol.GetString(args, "inputDirectory", "")
	outputDirectory := protocol.GetString(args, "outputDirectory", "")
	filePattern := protocol.GetString(args, "filePattern", "*")

	if inputDirectory == "" {
		return protocol.Failure("inputDirectory is required")
	}
	if outputDirectory == "" {
		return protocol.Failure("outputDirectory is required")
	}

	if _, err := os.Stat(inputDirectory); err != nil {
		return protocol.Failure(fmt.Sprintf("Input directory '%s' does not exist", inputDirectory))
	}
	if err := os.MkdirAll(outputDirectory, 0755); err != nil {
		return protocol.Failure(err.Error())
	}

	searchPattern := filepath.Join(inputDirectory, filePattern)
	files, err := filepath.Glob(searchPattern)
	if err != nil {
		return protocol.Failure(err.Error())
	}
	if len(files) == 0 {
		return protocol.Failure(fmt.Sprintf("No files found matching pattern '%s'", searchPattern))
	}

	settings := c.graph.Settings()
	processed := make([]any, 0, len(files))
	for _, inPath := range files {
		outPath := filepath.Join(outputDirectory, filepath.Base(inPath))

		data, err := os.ReadFile(inPath)
		if err != nil {
			return protocol.Failure(err.Error())
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return protocol.Failure(err.Error())
		}

		c.graph.RecordRender(scene.RenderRecord{
			WriteNode:  "batchProcess",
			FirstFrame: settings.FirstFrame,
			LastFrame:  settings.LastFrame,
			File:       outPath,
			RenderedAt: time.Now(),
		})

		processed = append(processed, map[string]any{
			"input":  inPath,
			"output": outPath,
		})
	}

	return protocol.Success(map[string]any{
		"batchProcess": map[string]any{
			"inputDirectory":  inputDirectory,
			"outputDirectory": outputDirectory,
			"filePattern":     filePattern,
			"processedFiles":  processed,
		},
	})
}

func (c *Catalog) stats(args map[string]any) protocol.Response {
	out := map[string]any{
		"graph": c.graph.Stats(),
		"store": c.store.Stats(),
	}
	for name, fn := range c.sources {
		out[name] = fn()
	}
	return protocol.Success(map[string]any{"stats": out})
}
