// Package route resolves edge geometry for flow diagrams.
//
// For every edge the router decides which face of the source box the
// connector exits, which face of the destination box it enters, and
// whether the connector is straight, elbowed, or bowed. Decisions are
// derived fresh from box geometry on every call; nothing is persisted.
//
// The face heuristic classifies the direction vector (vx, vy) from source
// center to destination center into four compass sectors:
//
//	|vy| < 0.25|vx|  near-horizontal: straight, side faces
//	|vx| < 0.25|vy|  near-vertical:   straight, top/bottom faces
//	|vy| < 0.75|vx|  mostly horizontal: exit top/bottom, enter a side (elbow)
//	otherwise        mostly vertical:   exit a side, enter top/bottom (elbow)
//
// Comparisons are strict, so an edge sitting exactly on a threshold
// resolves to the later, elbowed sector. Sign ties break positive:
// vx >= 0 exits right, vy >= 0 exits top.
package route

import (
	"fmt"
	"math"

	"github.com/matzehuels/flowline/pkg/diagram"
)

// Style is the connector shape between two anchor points.
type Style int

const (
	// Straight is a direct segment between the anchors.
	Straight Style = iota
	// Elbow is a two-segment path with one bend.
	Elbow
	// Curved is a quadratic bow; produced only by an explicit Curve value
	// on the edge, never by the heuristic.
	Curved
)

func (s Style) String() string {
	switch s {
	case Straight:
		return "straight"
	case Elbow:
		return "elbow"
	case Curved:
		return "curved"
	default:
		return "unknown"
	}
}

// Decision is the resolved geometry for one edge. Src and Dst index into
// the diagram's node slice (and the parallel box slice).
type Decision struct {
	Edge     int
	Src, Dst int
	Exit     diagram.Face
	Entry    diagram.Face
	Style    Style
	From, To diagram.Point // anchor points, after face spreading
	Curve    float64
}

// Options tunes connector geometry.
type Options struct {
	// CornerRadius is the rounded elbow corner radius in diagram units.
	// An elbow whose horizontal arm is shorter than 1.5x this radius
	// collapses to a vertical straight connector.
	CornerRadius float64

	// Tip is the gap left between the entry anchor and the box face so
	// arrowheads do not touch the border.
	Tip float64
}

// DefaultCornerRadius matches the default rounded-corner size used by the
// SVG sink.
const DefaultCornerRadius = 0.4

const coincidentEps = 1e-9

// Route resolves faces, styles, and spread anchor points for every edge.
// Boxes must be parallel to d.Nodes. Unknown node references are
// configuration errors, reported before any decision is produced.
func Route(d *diagram.Diagram, boxes []diagram.Box, opts Options) ([]Decision, error) {
	if opts.CornerRadius <= 0 {
		opts.CornerRadius = DefaultCornerRadius
	}

	decisions := make([]Decision, 0, len(d.Edges))
	for i, e := range d.Edges {
		si, ok := d.NodeIndex(e.Src)
		if !ok {
			return nil, fmt.Errorf("edge %d (%s -> %s): %w: %q", i, e.Src, e.Dst, diagram.ErrUnknownNode, e.Src)
		}
		di, ok := d.NodeIndex(e.Dst)
		if !ok {
			return nil, fmt.Errorf("edge %d (%s -> %s): %w: %q", i, e.Src, e.Dst, diagram.ErrUnknownNode, e.Dst)
		}
		if si == di {
			return nil, fmt.Errorf("edge %d: %w: %q", i, diagram.ErrSelfLoop, e.Src)
		}

		dec := resolve(i, si, di, e, d.Nodes[si], d.Nodes[di], opts)
		dec.From = boxes[si].FacePoint(dec.Exit)
		dec.To = entryAnchor(boxes[di], dec.Entry, opts.Tip)
		decisions = append(decisions, dec)
	}

	spread(decisions, boxes, opts.Tip)
	return decisions, nil
}

// resolve picks faces and style for a single edge.
func resolve(edge, si, di int, e diagram.Edge, src, dst diagram.Node, opts Options) Decision {
	vx := dst.CX - src.CX
	vy := dst.CY - src.CY

	exit, entry, style := heuristic(vx, vy)

	// Degenerate elbow: in the mostly-vertical sector the horizontal arm
	// runs from the source center to the destination center. If it is too
	// short to fit a rounded corner, route vertically instead.
	if style == Elbow && exit.Horizontal() && math.Abs(vx) < opts.CornerRadius*1.5 {
		if vy >= 0 {
			exit, entry = diagram.FaceTop, diagram.FaceBottom
		} else {
			exit, entry = diagram.FaceBottom, diagram.FaceTop
		}
		style = Straight
	}

	// Forced faces override the heuristic for their end only; the style
	// is then re-derived from the final face pair.
	if e.Exit != diagram.FaceAuto || e.Entry != diagram.FaceAuto {
		if e.Exit != diagram.FaceAuto {
			exit = e.Exit
		}
		if e.Entry != diagram.FaceAuto {
			entry = e.Entry
		}
		if exit.Horizontal() == entry.Horizontal() {
			style = Straight
		} else {
			style = Elbow
		}
	}

	dec := Decision{Edge: edge, Src: si, Dst: di, Exit: exit, Entry: entry, Style: style, Curve: e.Curve}
	if e.Curve != 0 {
		dec.Style = Curved
	}
	return dec
}

// heuristic implements the compass-sector table. Coincident centers fall
// back to a right-to-left straight connector.
func heuristic(vx, vy float64) (exit, entry diagram.Face, style Style) {
	ax, ay := math.Abs(vx), math.Abs(vy)

	if ax < coincidentEps && ay < coincidentEps {
		return diagram.FaceRight, diagram.FaceLeft, Straight
	}

	switch {
	case ay < ax*0.25:
		if vx >= 0 {
			return diagram.FaceRight, diagram.FaceLeft, Straight
		}
		return diagram.FaceLeft, diagram.FaceRight, Straight

	case ax < ay*0.25:
		if vy >= 0 {
			return diagram.FaceTop, diagram.FaceBottom, Straight
		}
		return diagram.FaceBottom, diagram.FaceTop, Straight

	case ay < ax*0.75:
		exit = diagram.FaceTop
		if vy < 0 {
			exit = diagram.FaceBottom
		}
		entry = diagram.FaceLeft
		if vx < 0 {
			entry = diagram.FaceRight
		}
		return exit, entry, Elbow

	default:
		exit = diagram.FaceRight
		if vx < 0 {
			exit = diagram.FaceLeft
		}
		entry = diagram.FaceBottom
		if vy < 0 {
			entry = diagram.FaceTop
		}
		return exit, entry, Elbow
	}
}

// entryAnchor returns the face midpoint pushed outward by the tip gap.
func entryAnchor(b diagram.Box, f diagram.Face, tip float64) diagram.Point {
	p := b.FacePoint(f)
	switch f {
	case diagram.FaceTop:
		p.Y += tip
	case diagram.FaceBottom:
		p.Y -= tip
	case diagram.FaceLeft:
		p.X -= tip
	case diagram.FaceRight:
		p.X += tip
	}
	return p
}
