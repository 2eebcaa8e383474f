package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/flowline/pkg/cache"
	"github.com/matzehuels/flowline/pkg/diagram"
	flowerrors "github.com/matzehuels/flowline/pkg/errors"
	"github.com/matzehuels/flowline/pkg/measure"
)

// fixedMeasurer reports a constant text extent, keeping pipeline tests
// independent of any font backend.
type fixedMeasurer struct {
	w, h float64
}

func (f *fixedMeasurer) MeasureText(s string, style measure.TextStyle) (float64, float64, error) {
	return f.w, f.h, nil
}

func testRunner() *Runner {
	r := NewRunner(cache.NewNullCache(), nil, nil)
	r.Measurer = &fixedMeasurer{w: 60, h: 20}
	return r
}

func testDiagram() *diagram.Diagram {
	return &diagram.Diagram{
		Title: "Test Flow",
		Nodes: []diagram.Node{
			{ID: "a", Label: "Start", CX: 0, CY: 0},
			{ID: "b", Label: "Middle", CX: 4, CY: 0},
			{ID: "c", Label: "End", CX: 4, CY: 3},
		},
		Edges: []diagram.Edge{
			{Src: "a", Dst: "b", Label: "go"},
			{Src: "b", Dst: "c"},
		},
	}
}

func TestExecuteSVG(t *testing.T) {
	r := testRunner()

	result, err := r.Execute(context.Background(), testDiagram(), Options{Formats: []string{FormatSVG}})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	svg := string(result.Artifacts[FormatSVG])
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		t.Error("svg artifact malformed")
	}
	for _, label := range []string{"Start", "Middle", "End", "go"} {
		if !strings.Contains(svg, label) {
			t.Errorf("svg missing %q", label)
		}
	}
	if !strings.Contains(svg, "Test Flow") {
		t.Error("diagram title not rendered")
	}

	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("stats wrong: %+v", result.Stats)
	}
	if result.RunID == "" || result.DiagramHash == "" {
		t.Error("run metadata missing")
	}
	if result.CacheHit {
		t.Error("null cache can never hit")
	}
}

func TestExecuteJSONLayout(t *testing.T) {
	r := testRunner()

	result, err := r.Execute(context.Background(), testDiagram(), Options{Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	var layout struct {
		Title string `json:"title"`
		Boxes map[string]struct {
			X0, Y0, X1, Y1 float64
		} `json:"boxes"`
		Edges []struct {
			Src, Dst, Exit, Entry, Style string
		} `json:"edges"`
	}
	if err := json.Unmarshal(result.Artifacts[FormatJSON], &layout); err != nil {
		t.Fatalf("json artifact malformed: %v", err)
	}

	if len(layout.Boxes) != 3 {
		t.Errorf("want 3 boxes, got %d", len(layout.Boxes))
	}
	if len(layout.Edges) != 2 {
		t.Fatalf("want 2 edges, got %d", len(layout.Edges))
	}

	// a -> b is purely horizontal.
	first := layout.Edges[0]
	if first.Src != "a" || first.Dst != "b" || first.Exit != "right" || first.Entry != "left" || first.Style != "straight" {
		t.Errorf("first edge routed wrong: %+v", first)
	}
	for id, b := range layout.Boxes {
		if b.X1 <= b.X0 || b.Y1 <= b.Y0 {
			t.Errorf("box %s degenerate: %+v", id, b)
		}
	}
}

func TestExecuteDOT(t *testing.T) {
	r := testRunner()

	result, err := r.Execute(context.Background(), testDiagram(), Options{Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, "digraph flow") || !strings.Contains(dot, `"a" -> "b"`) {
		t.Errorf("dot artifact malformed:\n%s", dot)
	}
}

func TestExecuteInvalidDiagram(t *testing.T) {
	r := testRunner()

	d := testDiagram()
	d.Edges = append(d.Edges, diagram.Edge{Src: "a", Dst: "ghost"})

	_, err := r.Execute(context.Background(), d, Options{})
	if err == nil {
		t.Fatal("unknown node should fail")
	}
	if !flowerrors.Is(err, flowerrors.ErrCodeUnknownNode) {
		t.Errorf("want ErrCodeUnknownNode, got %v", err)
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := testRunner()

	t.Run("bad format", func(t *testing.T) {
		_, err := r.Execute(context.Background(), testDiagram(), Options{Formats: []string{"pdf"}})
		if !flowerrors.Is(err, flowerrors.ErrCodeInvalidFormat) {
			t.Errorf("want ErrCodeInvalidFormat, got %v", err)
		}
	})

	t.Run("bad autoscale", func(t *testing.T) {
		_, err := r.Execute(context.Background(), testDiagram(), Options{MaxAutoscale: 0.5})
		if !flowerrors.Is(err, flowerrors.ErrCodeInvalidOption) {
			t.Errorf("want ErrCodeInvalidOption, got %v", err)
		}
	})
}

func TestExecuteCacheRoundTrip(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(store, nil, nil)
	r.Measurer = &fixedMeasurer{w: 60, h: 20}

	opts := Options{Formats: []string{FormatSVG}}

	first, err := r.Execute(context.Background(), testDiagram(), opts)
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss")
	}

	second, err := r.Execute(context.Background(), testDiagram(), opts)
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should hit the cache")
	}
	if string(first.Artifacts[FormatSVG]) != string(second.Artifacts[FormatSVG]) {
		t.Error("cached artifact differs from rendered one")
	}

	// Changed options render fresh.
	third, err := r.Execute(context.Background(), testDiagram(), Options{Formats: []string{FormatSVG}, Width: 800})
	if err != nil {
		t.Fatalf("third Execute error: %v", err)
	}
	if third.CacheHit {
		t.Error("different width should bypass the cached artifact")
	}
}

func TestExecuteCacheKeyCoversMeasureOptions(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(store, nil, nil)
	r.Measurer = &fixedMeasurer{w: 60, h: 20}

	base := Options{Formats: []string{FormatSVG}}
	if _, err := r.Execute(context.Background(), testDiagram(), base); err != nil {
		t.Fatal(err)
	}

	// Padding and font sizes change measured boxes and therefore the
	// rendered bytes; none of them may be served from a prior run.
	variants := []struct {
		name string
		opts Options
	}{
		{"pad", Options{Formats: []string{FormatSVG}, Pad: 1.0}},
		{"font size", Options{Formats: []string{FormatSVG}, FontSize: 18}},
		{"edge font size", Options{Formats: []string{FormatSVG}, EdgeFontSize: 14}},
	}
	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Execute(context.Background(), testDiagram(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if result.CacheHit {
				t.Error("run with changed measure options was served a stale cached artifact")
			}
		})
	}
}

func TestExecuteNoCache(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(store, nil, nil)
	r.Measurer = &fixedMeasurer{w: 60, h: 20}

	opts := Options{Formats: []string{FormatSVG}, NoCache: true}
	if _, err := r.Execute(context.Background(), testDiagram(), opts); err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(context.Background(), testDiagram(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheHit {
		t.Error("NoCache must bypass the cache")
	}
}

func TestExecuteAutospaceReported(t *testing.T) {
	r := testRunner()

	// Two tiers one unit apart with tall labels force an expansion.
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "a", Label: "A", CX: 0, CY: 0},
			{ID: "b", Label: "B", CX: 0, CY: 0.4},
		},
		Edges: []diagram.Edge{{Src: "a", Dst: "b"}},
	}

	result, err := r.Execute(context.Background(), d, Options{Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Scale <= 1 {
		t.Errorf("crowded tiers should report a scale factor, got %g", result.Scale)
	}
	if result.Scale > DefaultMaxAutoscale {
		t.Errorf("scale %g exceeds the cap", result.Scale)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("default format = %v", opts.Formats)
	}
	if opts.Width != DefaultWidth || opts.MaxAutoscale != DefaultMaxAutoscale {
		t.Errorf("defaults not applied: %+v", opts)
	}

	bad := Options{NodeWidth: -1}
	err := bad.ValidateAndSetDefaults()
	if err == nil {
		t.Fatal("negative node width should fail")
	}
	if !strings.Contains(err.Error(), "must not be negative") {
		t.Errorf("zero is valid (measure), so the message should say negative: %v", err)
	}

	// Zero overrides mean "measure the label" and are accepted.
	zero := Options{NodeWidth: 0, NodeHeight: 0}
	if err := zero.ValidateAndSetDefaults(); err != nil {
		t.Errorf("zero node dimensions should validate: %v", err)
	}
}
