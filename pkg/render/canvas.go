// Package render defines the drawing seam between the routing core and
// concrete output backends.
//
// The core hands a [Canvas] finished boxes and routing decisions; the
// canvas owns coordinate transformation and output encoding. Sinks live
// in the sink subpackage (SVG, PNG, Graphviz DOT); anything implementing
// Canvas can be swapped in.
package render

import (
	"math"

	"github.com/matzehuels/flowline/pkg/diagram"
	"github.com/matzehuels/flowline/pkg/route"
)

// Default margins, in diagram units, added around the node centers when
// fitting the frame.
const (
	MarginX = 3.0
	MarginY = 1.2
)

// Frame maps diagram coordinates onto a pixel viewport. The same
// pixels-per-unit factor applies to both axes, so measured text extents
// stay valid in either direction. Diagram y grows upward; pixel y grows
// downward; ToPx performs the flip.
type Frame struct {
	X0, Y0, X1, Y1 float64 // diagram-space limits
	PxPerUnit      float64
}

// FitFrame derives a frame from the node centers plus the standard
// margins, scaled so the diagram spans widthPx pixels.
func FitFrame(nodes []diagram.Node, widthPx float64) Frame {
	if len(nodes) == 0 {
		return Frame{X0: -MarginX, Y0: -MarginY, X1: MarginX, Y1: MarginY, PxPerUnit: widthPx / (2 * MarginX)}
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, n := range nodes {
		minX = math.Min(minX, n.CX)
		maxX = math.Max(maxX, n.CX)
		minY = math.Min(minY, n.CY)
		maxY = math.Max(maxY, n.CY)
	}
	f := Frame{X0: minX - MarginX, Y0: minY - MarginY, X1: maxX + MarginX, Y1: maxY + MarginY}
	f.PxPerUnit = widthPx / (f.X1 - f.X0)
	return f
}

// WidthPx returns the viewport width in pixels.
func (f Frame) WidthPx() float64 { return (f.X1 - f.X0) * f.PxPerUnit }

// HeightPx returns the viewport height in pixels.
func (f Frame) HeightPx() float64 { return (f.Y1 - f.Y0) * f.PxPerUnit }

// ToPx converts a diagram point to pixel coordinates.
func (f Frame) ToPx(p diagram.Point) (x, y float64) {
	return (p.X - f.X0) * f.PxPerUnit, (f.Y1 - p.Y) * f.PxPerUnit
}

// Px converts a distance in diagram units to pixels.
func (f Frame) Px(units float64) float64 { return units * f.PxPerUnit }

// BoxStyle describes how a node box is painted.
type BoxStyle struct {
	Fill      string
	TextColor string
	Label     string
	Outline   bool // draw a border (used for background-colored fills)
}

// LineStyle describes how a connector is painted.
type LineStyle struct {
	Color  string
	Dashed bool
}

// Canvas is the drawing capability consumed by the pipeline. Calls are
// made in paint order: connectors first so boxes cover their line ends,
// then boxes, then edge labels. Bytes finalizes the artifact; a canvas
// is single-use.
type Canvas interface {
	DrawBox(b diagram.Box, s BoxStyle)
	DrawConnector(dec route.Decision, s LineStyle)
	DrawLabel(at diagram.Point, text, color string)
	Bytes() ([]byte, error)
}
