package scene

import (
	"errors"
	"testing"

	"github.com/denizumutdereli/nukebridge/pkg/core"
)

func testSettings() ProjectSettings {
	return ProjectSettings{FirstFrame: 1, LastFrame: 100, Width: 1920, Height: 1080, FPS: 24}
}

// ---------------------------------------------------------------------------
// Node creation and naming
// ---------------------------------------------------------------------------

func TestCreateNodeAutoNaming(t *testing.T) {
	g := NewGraph(testSettings())

	first, err := g.CreateNode("Blur", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.Name != "Blur1" {
		t.Errorf("expected Blur1, got %s", first.Name)
	}

	second, _ := g.CreateNode("Blur", "")
	if second.Name != "Blur2" {
		t.Errorf("expected Blur2, got %s", second.Name)
	}

	// A different class counts separately.
	grade, _ := g.CreateNode("Grade", "")
	if grade.Name != "Grade1" {
		t.Errorf("expected Grade1, got %s", grade.Name)
	}
}

func TestCreateNodeAutoNamingSkipsTaken(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "Blur1")

	n, err := g.CreateNode("Blur", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if n.Name == "Blur1" {
		t.Error("auto-naming reused a taken name")
	}
}

func TestCreateNodeDuplicateName(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "MyBlur")

	_, err := g.CreateNode("Grade", "MyBlur")
	if !errors.Is(err, core.ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestCreateNodeEmptyClass(t *testing.T) {
	g := NewGraph(testSettings())
	if _, err := g.CreateNode("", ""); err == nil {
		t.Fatal("expected error for empty class")
	}
}

func TestCreateNodeAutoLayout(t *testing.T) {
	g := NewGraph(testSettings())
	a, _ := g.CreateNode("Blur", "")
	b, _ := g.CreateNode("Blur", "")
	if a.YPos != 0 || b.YPos != 40 {
		t.Errorf("expected stacked layout 0/40, got %d/%d", a.YPos, b.YPos)
	}
}

// ---------------------------------------------------------------------------
// Connections and positions
// ---------------------------------------------------------------------------

func TestSetInput(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Read", "Read1")
	g.CreateNode("Blur", "Blur1")

	if err := g.SetInput("Blur1", 0, "Read1"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	blur, _ := g.ToNode("Blur1")
	if blur.Inputs[0] != "Read1" {
		t.Errorf("input not wired: %v", blur.Inputs)
	}
}

func TestSetInputErrors(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "Blur1")

	if err := g.SetInput("Missing", 0, "Blur1"); !errors.Is(err, core.ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound for missing target, got %v", err)
	}
	if err := g.SetInput("Blur1", 0, "Missing"); !errors.Is(err, core.ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound for missing input, got %v", err)
	}
	if err := g.SetInput("Blur1", -1, "Blur1"); err == nil {
		t.Error("expected error for negative slot")
	}
}

func TestSetPosition(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "Blur1")

	if err := g.SetPosition("Blur1", 100, 200); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	n, _ := g.ToNode("Blur1")
	if n.XPos != 100 || n.YPos != 200 {
		t.Errorf("position not applied: %d,%d", n.XPos, n.YPos)
	}
}

func TestDeleteDropsDanglingInputs(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Read", "Read1")
	g.CreateNode("Blur", "Blur1")
	g.SetInput("Blur1", 0, "Read1")

	if err := g.Delete("Read1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	blur, _ := g.ToNode("Blur1")
	if _, dangling := blur.Inputs[0]; dangling {
		t.Error("connection to deleted node survived")
	}
	if g.Count() != 1 {
		t.Errorf("expected 1 node, got %d", g.Count())
	}
}

// ---------------------------------------------------------------------------
// Listing and grouping
// ---------------------------------------------------------------------------

func TestNodesCreationOrderAndFilter(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Read", "Read1")
	g.CreateNode("Blur", "Blur1")
	g.CreateNode("Read", "Read2")

	all := g.Nodes("")
	if len(all) != 3 || all[0].Name != "Read1" || all[2].Name != "Read2" {
		t.Errorf("creation order broken: %v", names(all))
	}

	reads := g.Nodes("Read")
	if len(reads) != 2 {
		t.Errorf("expected 2 Read nodes, got %d", len(reads))
	}
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestCollapse(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "Blur1")
	g.CreateNode("Grade", "Grade1")
	g.CreateNode("Write", "Write1")

	group, err := g.Collapse("MyGroup", []string{"Blur1", "Grade1"})
	if err != nil {
		t.Fatalf("collapse failed: %v", err)
	}
	if group.Class != "Group" || group.Name != "MyGroup" {
		t.Errorf("unexpected group node: %s/%s", group.Name, group.Class)
	}
	if len(group.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(group.Members))
	}

	// Members left the top level; the bystander stayed.
	if _, ok := g.ToNode("Blur1"); ok {
		t.Error("member still at top level")
	}
	if _, ok := g.ToNode("Write1"); !ok {
		t.Error("unrelated node disappeared")
	}
}

func TestCollapseAutoName(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "Blur1")

	group, err := g.Collapse("", []string{"Blur1"})
	if err != nil {
		t.Fatalf("collapse failed: %v", err)
	}
	if group.Name != "Group1" {
		t.Errorf("expected Group1, got %s", group.Name)
	}
}

func TestCollapseErrors(t *testing.T) {
	g := NewGraph(testSettings())
	if _, err := g.Collapse("G", nil); err == nil {
		t.Error("expected error for empty member list")
	}
	if _, err := g.Collapse("G", []string{"Missing"}); !errors.Is(err, core.ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Settings, versioning, renders
// ---------------------------------------------------------------------------

func TestProjectSettingsMutations(t *testing.T) {
	g := NewGraph(testSettings())
	g.SetFrameRange(10, 50)
	g.SetResolution(1280, 720)
	g.SetFPS(30)

	s := g.Settings()
	if s.FirstFrame != 10 || s.LastFrame != 50 {
		t.Errorf("frame range not applied: %+v", s)
	}
	if s.Width != 1280 || s.Height != 720 {
		t.Errorf("resolution not applied: %+v", s)
	}
	if s.FPS != 30 {
		t.Errorf("fps not applied: %g", s.FPS)
	}
}

func TestVersionIncrementsOnMutation(t *testing.T) {
	g := NewGraph(testSettings())
	v0 := g.Version()

	g.CreateNode("Blur", "")
	if g.Version() == v0 {
		t.Error("CreateNode did not bump version")
	}

	v1 := g.Version()
	g.Nodes("") // reads must not bump
	g.Settings()
	if g.Version() != v1 {
		t.Error("read operations bumped version")
	}
}

func TestRecordRenderAndStats(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Write", "Write1")
	g.RecordRender(RenderRecord{WriteNode: "Write1", FirstFrame: 1, LastFrame: 10})

	if len(g.Renders()) != 1 {
		t.Fatalf("expected 1 render record, got %d", len(g.Renders()))
	}

	stats := g.Stats()
	if stats["nodeCount"].(int) != 1 {
		t.Errorf("unexpected nodeCount: %v", stats["nodeCount"])
	}
	if stats["renders"].(int) != 1 {
		t.Errorf("unexpected render count: %v", stats["renders"])
	}
}

// ---------------------------------------------------------------------------
// Snapshot and restore
// ---------------------------------------------------------------------------

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Read", "Read1")
	blur, _ := g.CreateNode("Blur", "Blur1")
	blur.SetKnob("size", 20.0)
	g.SetInput("Blur1", 0, "Read1")
	g.SetFrameRange(5, 25)

	snap := g.Snapshot("comp_v01")
	if snap.Name != "comp_v01" || len(snap.Nodes) != 2 {
		t.Fatalf("unexpected snapshot: %s, %d nodes", snap.Name, len(snap.Nodes))
	}

	restored := NewGraph(ProjectSettings{})
	restored.Restore(snap)

	if restored.Count() != 2 {
		t.Fatalf("expected 2 restored nodes, got %d", restored.Count())
	}
	rb, ok := restored.ToNode("Blur1")
	if !ok {
		t.Fatal("Blur1 missing after restore")
	}
	if v, _ := rb.Knob("size"); v != 20.0 {
		t.Errorf("knob value lost: %v", v)
	}
	if rb.Inputs[0] != "Read1" {
		t.Errorf("connection lost: %v", rb.Inputs)
	}
	if s := restored.Settings(); s.FirstFrame != 5 || s.LastFrame != 25 {
		t.Errorf("settings lost: %+v", s)
	}
}

func TestSnapshotPreservesGroupMembers(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "Blur1")
	g.CreateNode("Grade", "Grade1")
	g.Collapse("Pack", []string{"Blur1", "Grade1"})

	snap := g.Snapshot("grouped")

	restored := NewGraph(ProjectSettings{})
	restored.Restore(snap)

	group, ok := restored.ToNode("Pack")
	if !ok {
		t.Fatal("group missing after restore")
	}
	if len(group.Members) != 2 {
		t.Errorf("expected 2 members after restore, got %d", len(group.Members))
	}
}

func TestRestoreReplacesExistingContents(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "Old1")
	snap := g.Snapshot("before")

	g.Clear()
	g.CreateNode("Grade", "New1")

	g.Restore(snap)
	if _, ok := g.ToNode("New1"); ok {
		t.Error("pre-restore node survived")
	}
	if _, ok := g.ToNode("Old1"); !ok {
		t.Error("snapshot node missing")
	}
}

func TestRestoreRebuildsAutoNameCounters(t *testing.T) {
	g := NewGraph(testSettings())
	g.CreateNode("Blur", "")
	g.CreateNode("Blur", "")
	snap := g.Snapshot("two_blurs")

	restored := NewGraph(ProjectSettings{})
	restored.Restore(snap)

	n, err := restored.CreateNode("Blur", "")
	if err != nil {
		t.Fatalf("create after restore failed: %v", err)
	}
	if n.Name != "Blur3" {
		t.Errorf("expected Blur3 after restoring two blurs, got %s", n.Name)
	}
}
