package diagram

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFileTOMLMultiDiagram(t *testing.T) {
	path := writeTemp(t, "flows.toml", `
[diagram.first]
title = "First"

[[diagram.first.nodes]]
id = "a"
label = "A"
cx = 0.0
cy = 0.0

[[diagram.first.nodes]]
id = "b"
label = "B"
cx = 4.0
cy = 0.0

[[diagram.first.edges]]
src = "a"
dst = "b"
label = "next"

[diagram.second]

[[diagram.second.nodes]]
id = "x"
label = "X"
cx = 0.0
cy = 0.0
`)

	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if got := f.Names(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("Names() = %v", got)
	}

	d := f.Diagrams["first"]
	if d.Title != "First" || d.NodeCount() != 2 || d.EdgeCount() != 1 {
		t.Errorf("first diagram wrong: %+v", d)
	}
	if d.Edges[0].Label != "next" {
		t.Errorf("edge label = %q", d.Edges[0].Label)
	}
}

func TestReadFileTOMLBare(t *testing.T) {
	// Files without the [diagram.<name>] wrapper decode as "default".
	path := writeTemp(t, "bare.toml", `
title = "Bare"

[[nodes]]
id = "a"
label = "A"
cx = 0.0
cy = 0.0
`)

	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if _, ok := f.Diagrams["default"]; !ok {
		t.Errorf("bare file should decode under default, got %v", f.Names())
	}
}

func TestReadFileJSON(t *testing.T) {
	path := writeTemp(t, "flow.json", `{
  "title": "J",
  "nodes": [
    {"id": "a", "label": "A", "cx": 0, "cy": 0},
    {"id": "b", "label": "B", "cx": 0, "cy": 2}
  ],
  "edges": [{"src": "a", "dst": "b", "exit": "top", "dashed": true}]
}`)

	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	d := f.Diagrams["default"]
	if d == nil {
		t.Fatalf("json should decode under default, got %v", f.Names())
	}
	if d.Edges[0].Exit != FaceTop || !d.Edges[0].Dashed {
		t.Errorf("edge attributes lost: %+v", d.Edges[0])
	}
}

func TestReadFileValidates(t *testing.T) {
	path := writeTemp(t, "bad.toml", `
[diagram.broken]

[[diagram.broken.nodes]]
id = "a"
cx = 0.0
cy = 0.0

[[diagram.broken.edges]]
src = "a"
dst = "missing"
`)

	if _, err := ReadFile(path); err == nil {
		t.Error("invalid diagram should fail to load")
	} else if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should name the diagram: %v", err)
	}
}

func TestReadFileUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "flow.yaml", "nodes: []")
	if _, err := ReadFile(path); err == nil {
		t.Error("unsupported extension should fail")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	d := validDiagram()

	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	path := writeTemp(t, "rt.json", string(data))
	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	got := f.Diagrams["default"]
	if got.NodeCount() != d.NodeCount() || got.EdgeCount() != d.EdgeCount() {
		t.Errorf("round trip lost content: %+v", got)
	}
}
