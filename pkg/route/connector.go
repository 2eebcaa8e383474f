package route

import (
	"math"

	"github.com/matzehuels/flowline/pkg/diagram"
)

// BendPoint returns the corner of an elbow connector. A connector exiting
// a side face runs horizontally first and bends at the destination's x; a
// connector exiting top or bottom runs vertically first and bends at the
// destination's y. Only meaningful for Elbow decisions.
func (d Decision) BendPoint() diagram.Point {
	if d.Exit.Horizontal() {
		return diagram.Point{X: d.To.X, Y: d.From.Y}
	}
	return diagram.Point{X: d.From.X, Y: d.To.Y}
}

// ControlPoint returns the quadratic control point of a bowed connector.
// The bow offset is Curve times the chord length, perpendicular to the
// chord; positive values bow left of the direction of travel.
func (d Decision) ControlPoint() diagram.Point {
	chordX := d.To.X - d.From.X
	chordY := d.To.Y - d.From.Y
	chordLen := math.Hypot(chordX, chordY)
	midX := (d.From.X + d.To.X) / 2
	midY := (d.From.Y + d.To.Y) / 2
	if chordLen < coincidentEps {
		return diagram.Point{X: midX, Y: midY}
	}
	return diagram.Point{
		X: midX - d.Curve*chordY,
		Y: midY + d.Curve*chordX,
	}
}

// LabelAnchor returns where an edge label should be centered.
//
// Straight connectors label their midpoint. Elbow connectors label the
// middle of whichever arm is visually longer, so the text sits on the
// dominant segment instead of the corner. Bowed connectors label the
// curve's midpoint (the quadratic Bezier at t=0.5).
func (d Decision) LabelAnchor() diagram.Point {
	switch d.Style {
	case Curved:
		c := d.ControlPoint()
		return diagram.Point{
			X: 0.25*d.From.X + 0.5*c.X + 0.25*d.To.X,
			Y: 0.25*d.From.Y + 0.5*c.Y + 0.25*d.To.Y,
		}
	case Elbow:
		if d.Exit.Horizontal() {
			visH := math.Abs(d.To.X - d.From.X)
			visV := math.Abs(d.To.Y - d.From.Y)
			if visV > visH {
				return diagram.Point{X: d.To.X, Y: (d.From.Y + d.To.Y) / 2}
			}
			return diagram.Point{X: (d.From.X + d.To.X) / 2, Y: d.From.Y}
		}
		visV := math.Abs(d.To.Y - d.From.Y)
		visH := math.Abs(d.To.X - d.From.X)
		if visH > visV {
			return diagram.Point{X: (d.From.X + d.To.X) / 2, Y: d.To.Y}
		}
		return diagram.Point{X: d.From.X, Y: (d.From.Y + d.To.Y) / 2}
	default:
		return diagram.Point{X: (d.From.X + d.To.X) / 2, Y: (d.From.Y + d.To.Y) / 2}
	}
}
