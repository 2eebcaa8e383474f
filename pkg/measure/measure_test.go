package measure

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/flowline/pkg/diagram"
)

// fakeMeasurer sizes text arithmetically: 10px per rune of the widest
// line, 20px per line.
type fakeMeasurer struct {
	err error
}

func (f *fakeMeasurer) MeasureText(s string, style TextStyle) (float64, float64, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	lines := strings.Split(s, "\n")
	widest := 0
	for _, line := range lines {
		if len(line) > widest {
			widest = len(line)
		}
	}
	return float64(widest) * 10, float64(len(lines)) * 20, nil
}

func TestMeasureSingleLabel(t *testing.T) {
	m := New(&fakeMeasurer{}, Scale{PxPerX: 100, PxPerY: 100})

	// "hello" is 50x20 px = 0.5x0.2 units; half extents 0.25/0.1 plus pad.
	box, err := m.Measure("hello", 2, 3, Options{Pad: 0.2})
	if err != nil {
		t.Fatalf("Measure error: %v", err)
	}
	if box.CenterX() != 2 || box.CenterY() != 3 {
		t.Errorf("box not centered on node: %+v", box)
	}
	if math.Abs(box.Width()-0.9) > 1e-9 {
		t.Errorf("width = %g, want 0.9", box.Width())
	}
	if math.Abs(box.Height()-0.6) > 1e-9 {
		t.Errorf("height = %g, want 0.6", box.Height())
	}
}

func TestMeasureEmptyLabelMinimumBox(t *testing.T) {
	m := New(&fakeMeasurer{}, Scale{PxPerX: 100, PxPerY: 100})

	box, err := m.Measure("", 0, 0, Options{})
	if err != nil {
		t.Fatalf("Measure error: %v", err)
	}
	if box.HalfW() < minHalfW || box.HalfH() < minHalfH {
		t.Errorf("empty label produced degenerate box: %+v", box)
	}
}

func TestMeasureMultilineLabel(t *testing.T) {
	m := New(&fakeMeasurer{}, Scale{PxPerX: 100, PxPerY: 100})

	one, err := m.Measure("abc", 0, 0, Options{Pad: 0.1})
	if err != nil {
		t.Fatalf("Measure error: %v", err)
	}
	two, err := m.Measure("abc\ndef", 0, 0, Options{Pad: 0.1})
	if err != nil {
		t.Fatalf("Measure error: %v", err)
	}
	if two.Height() <= one.Height() {
		t.Errorf("second line should grow the box: %g vs %g", two.Height(), one.Height())
	}
	if math.Abs(two.Width()-one.Width()) > 1e-9 {
		t.Errorf("equal-width lines should not grow the box: %g vs %g", two.Width(), one.Width())
	}
}

func TestMeasureOverrides(t *testing.T) {
	m := New(&fakeMeasurer{}, Scale{PxPerX: 100, PxPerY: 100})

	t.Run("both dimensions", func(t *testing.T) {
		box, err := m.Measure("a very long label indeed", 0, 0, Options{NodeWidth: 2, NodeHeight: 1})
		if err != nil {
			t.Fatalf("Measure error: %v", err)
		}
		if box.Width() != 2 || box.Height() != 1 {
			t.Errorf("overrides ignored: %+v", box)
		}
	})

	t.Run("width only", func(t *testing.T) {
		box, err := m.Measure("hi", 0, 0, Options{NodeWidth: 3, Pad: 0.2})
		if err != nil {
			t.Fatalf("Measure error: %v", err)
		}
		if box.Width() != 3 {
			t.Errorf("width override ignored: %g", box.Width())
		}
		if box.Height() <= 0.2 {
			t.Errorf("height should still be measured: %g", box.Height())
		}
	})
}

func TestMeasureAllColumnNormalization(t *testing.T) {
	m := New(&fakeMeasurer{}, Scale{PxPerX: 100, PxPerY: 100})

	nodes := []diagram.Node{
		{ID: "short", Label: "ab", CX: 0, CY: 0},
		{ID: "long", Label: "abcdefgh", CX: 0, CY: 2},
		{ID: "other", Label: "ab", CX: 5, CY: 0},
	}

	boxes, err := m.MeasureAll(nodes, Options{Pad: 0.1})
	if err != nil {
		t.Fatalf("MeasureAll error: %v", err)
	}

	// Same column: the short node inherits the widest box.
	if boxes[0].Width() != boxes[1].Width() {
		t.Errorf("column widths differ: %g vs %g", boxes[0].Width(), boxes[1].Width())
	}
	// Different column: stays at its own measured width.
	if boxes[2].Width() >= boxes[1].Width() {
		t.Errorf("other column should be narrower: %g vs %g", boxes[2].Width(), boxes[1].Width())
	}
	// Heights are per-node, not normalized.
	if boxes[0].Height() != boxes[2].Height() {
		t.Errorf("equal labels should have equal heights")
	}
}

func TestMeasureBackendErrorPropagates(t *testing.T) {
	backendErr := errors.New("font missing")
	m := New(&fakeMeasurer{err: backendErr}, Scale{PxPerX: 100, PxPerY: 100})

	if _, err := m.Measure("x", 0, 0, Options{}); !errors.Is(err, backendErr) {
		t.Errorf("backend error not propagated: %v", err)
	}
	if _, err := m.MeasureAll([]diagram.Node{{ID: "a", Label: "x"}}, Options{}); !errors.Is(err, backendErr) {
		t.Errorf("backend error not propagated from MeasureAll: %v", err)
	}
}

func TestScaleConversion(t *testing.T) {
	s := Scale{PxPerX: 120, PxPerY: 120}
	if got := s.ToUnitsX(60); got != 0.5 {
		t.Errorf("ToUnitsX(60) = %g, want 0.5", got)
	}
	if got := s.ToUnitsY(120); got != 1.0 {
		t.Errorf("ToUnitsY(120) = %g, want 1.0", got)
	}
}
