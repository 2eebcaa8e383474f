// Package measure sizes node boxes to their text labels.
//
// The measurer renders nothing itself: it asks an injected [TextMeasurer]
// for the pixel extent a label occupies, converts that extent into diagram
// units through a [Scale], and pads the result into a box centered on the
// node's declared coordinates. Keeping the backend behind the interface
// lets the routing pipeline run in tests without a real rendering surface.
package measure

import (
	"fmt"
	"math"

	"github.com/matzehuels/flowline/pkg/diagram"
)

// TextStyle carries the font parameters a backend needs to measure a label.
type TextStyle struct {
	Size        float64 // font size in points
	LineSpacing float64 // line height multiplier for multiline labels
	Bold        bool
}

// TextMeasurer is the measurement capability provided by a rendering
// backend. MeasureText returns the pixel extent the string would occupy
// when rendered with the given style. A failing backend (missing font,
// broken surface) is a fatal configuration problem and its error is
// propagated unchanged.
type TextMeasurer interface {
	MeasureText(s string, style TextStyle) (w, h float64, err error)
}

// Scale converts between pixels and diagram units. Both factors must be
// positive; they typically come from the viewport size divided by the
// diagram's coordinate range.
type Scale struct {
	PxPerX float64 // horizontal pixels per diagram unit
	PxPerY float64 // vertical pixels per diagram unit
}

// ToUnitsX converts a horizontal pixel distance to diagram units.
func (s Scale) ToUnitsX(px float64) float64 { return px / s.PxPerX }

// ToUnitsY converts a vertical pixel distance to diagram units.
func (s Scale) ToUnitsY(px float64) float64 { return px / s.PxPerY }

// Options controls box sizing.
type Options struct {
	Style TextStyle
	Pad   float64 // padding in diagram units added on every side

	// NodeWidth and NodeHeight, when positive, override the measured box
	// dimensions entirely (full width and height in diagram units).
	NodeWidth  float64
	NodeHeight float64
}

// Minimum half-extents so empty or whitespace labels still produce a
// usable box.
const (
	minHalfW = 0.15
	minHalfH = 0.1
)

// Measurer derives node boxes from label text.
type Measurer struct {
	Text  TextMeasurer
	Scale Scale
}

// New creates a measurer over the given backend and scale.
func New(text TextMeasurer, scale Scale) *Measurer {
	return &Measurer{Text: text, Scale: scale}
}

// Measure returns the padded box for a single label centered on (cx, cy).
func (m *Measurer) Measure(label string, cx, cy float64, opts Options) (diagram.Box, error) {
	halfW, halfH, err := m.halfExtents(label, opts)
	if err != nil {
		return diagram.Box{}, err
	}
	return diagram.NewBox(cx, cy, halfW, halfH), nil
}

// MeasureAll sizes a box for every node, applying two whole-diagram
// adjustments after the per-node measurement:
//
//   - nodes sharing an x-center are widened to the column's widest box,
//     so vertically aligned nodes look uniform
//   - NodeWidth / NodeHeight overrides replace the measured dimensions
//
// The returned slice is parallel to nodes.
func (m *Measurer) MeasureAll(nodes []diagram.Node, opts Options) ([]diagram.Box, error) {
	boxes := make([]diagram.Box, len(nodes))
	halfW := make([]float64, len(nodes))
	halfH := make([]float64, len(nodes))

	for i, n := range nodes {
		w, h, err := m.halfExtents(n.Label, opts)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		halfW[i], halfH[i] = w, h
	}

	// Column width normalization: widest box wins per x-center.
	cols := make(map[float64][]int)
	for i, n := range nodes {
		key := quantize(n.CX)
		cols[key] = append(cols[key], i)
	}
	for _, idxs := range cols {
		maxW := 0.0
		for _, i := range idxs {
			maxW = math.Max(maxW, halfW[i])
		}
		for _, i := range idxs {
			halfW[i] = maxW
		}
	}

	for i, n := range nodes {
		boxes[i] = diagram.NewBox(n.CX, n.CY, halfW[i], halfH[i])
	}
	return boxes, nil
}

func (m *Measurer) halfExtents(label string, opts Options) (halfW, halfH float64, err error) {
	if opts.NodeWidth > 0 && opts.NodeHeight > 0 {
		return opts.NodeWidth / 2, opts.NodeHeight / 2, nil
	}

	wPx, hPx := 0.0, 0.0
	if label != "" {
		wPx, hPx, err = m.Text.MeasureText(label, opts.Style)
		if err != nil {
			return 0, 0, fmt.Errorf("measure text: %w", err)
		}
	}

	halfW = math.Max(m.Scale.ToUnitsX(wPx)/2+opts.Pad, minHalfW)
	halfH = math.Max(m.Scale.ToUnitsY(hPx)/2+opts.Pad, minHalfH)

	if opts.NodeWidth > 0 {
		halfW = opts.NodeWidth / 2
	}
	if opts.NodeHeight > 0 {
		halfH = opts.NodeHeight / 2
	}
	return halfW, halfH, nil
}

// quantize collapses float jitter when grouping coordinates, matching the
// tolerance used by the auto-spacer's tier grouping.
func quantize(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
