package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowline/pkg/diagram"
)

func pickerFile(names ...string) *diagram.File {
	f := &diagram.File{Diagrams: make(map[string]*diagram.Diagram)}
	for _, name := range names {
		d := diagram.New()
		d.AddNode(diagram.Node{ID: "a", Label: "A"})
		f.Diagrams[name] = d
	}
	return f
}

func TestPickDiagramExplicitName(t *testing.T) {
	f := pickerFile("etl", "review")

	name, err := pickDiagram(f, "review")
	if err != nil {
		t.Fatal(err)
	}
	if name != "review" {
		t.Errorf("picked %q, want review", name)
	}

	if _, err := pickDiagram(f, "missing"); err == nil {
		t.Error("unknown diagram name should fail")
	}
}

func TestPickDiagramSingle(t *testing.T) {
	name, err := pickDiagram(pickerFile("only"), "")
	if err != nil {
		t.Fatal(err)
	}
	if name != "only" {
		t.Errorf("picked %q, want only", name)
	}
}

func TestPickDiagramMultiWithoutTerminal(t *testing.T) {
	// Test processes have no terminal on stdin, so the interactive picker
	// must refuse and point at the --diagram flag instead of launching.
	_, err := pickDiagram(pickerFile("etl", "review"), "")
	if err == nil {
		t.Fatal("multi-diagram file without a terminal should fail")
	}
	if !strings.Contains(err.Error(), "--diagram") {
		t.Errorf("error should mention the --diagram flag, got: %v", err)
	}
	for _, name := range []string{"etl", "review"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should list diagram %q, got: %v", name, err)
		}
	}
}
