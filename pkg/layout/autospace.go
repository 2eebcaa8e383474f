// Package layout adjusts vertical node spacing before routing.
//
// Nodes whose y-centers coincide (within a small tolerance) form a tier.
// When adjacent tiers sit too close for their boxes and the edge labels
// between them, every y-coordinate is scaled up by a single uniform
// factor. Uniform scaling preserves tier ordering and intra-tier
// alignment; a per-tier shift would distort both. The factor is capped:
// at extreme density the layout degrades gracefully instead of growing
// without bound.
package layout

import (
	"math"
	"sort"

	"github.com/matzehuels/flowline/pkg/diagram"
)

// DefaultMaxAutoscale caps how much the y-range may grow: 1.5 means the
// spacing pass may expand the vertical extent by at most 50%.
const DefaultMaxAutoscale = 1.5

// DefaultClearance is the minimum vertical gap, in diagram units, kept
// between the boxes of adjacent tiers when no edge label needs more.
const DefaultClearance = 0.5

// tierTolerance quantizes y-centers when grouping nodes into tiers.
const tierTolerance = 1e-6

// Options controls the auto-spacing pass.
type Options struct {
	// MaxAutoscale caps the uniform scale factor. Values below 1 fall
	// back to DefaultMaxAutoscale.
	MaxAutoscale float64

	// Clearance is the base gap between adjacent tier boxes.
	Clearance float64

	// LabelHalfHeights holds half the rendered height, in diagram units,
	// of each edge's label; parallel to the diagram's edge slice, zero
	// for unlabeled edges. Labeled edges crossing between two tiers
	// demand extra room so the label never overlaps a box.
	LabelHalfHeights []float64
}

// Tier is a transient grouping of nodes sharing a y-center. Indices point
// into the diagram's node slice.
type Tier struct {
	Y     float64
	Nodes []int
}

// Tiers groups nodes by quantized y-center, ordered bottom to top.
func Tiers(nodes []diagram.Node) []Tier {
	byY := make(map[float64][]int)
	for i, n := range nodes {
		k := quantize(n.CY)
		byY[k] = append(byY[k], i)
	}
	tiers := make([]Tier, 0, len(byY))
	for y, idxs := range byY {
		tiers = append(tiers, Tier{Y: y, Nodes: idxs})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Y < tiers[j].Y })
	return tiers
}

// Autospace computes and applies the uniform vertical scale factor.
//
// For each pair of adjacent tiers the required gap is the sum of the
// tallest half-boxes on either side plus clearance, raised further when a
// labeled near-vertical or steep edge crosses the pair. The factor is the
// largest required/actual gap ratio, at least 1 and at most MaxAutoscale.
//
// Returns rescaled boxes (parallel to d.Nodes), the matching rescaled
// diagram nodes, and the factor actually applied. Autospace never fails:
// pathological crowding yields the capped factor and a best-effort layout.
// Once no tier pair overlaps, re-applying is a no-op (factor 1.0).
func Autospace(d *diagram.Diagram, boxes []diagram.Box, opts Options) ([]diagram.Box, *diagram.Diagram, float64) {
	maxScale := opts.MaxAutoscale
	if maxScale < 1 {
		maxScale = DefaultMaxAutoscale
	}
	clearance := opts.Clearance
	if clearance <= 0 {
		clearance = DefaultClearance
	}

	tiers := Tiers(d.Nodes)
	if len(tiers) < 2 {
		return boxes, d, 1.0
	}

	factor := 1.0
	for t := 1; t < len(tiers); t++ {
		lo, hi := tiers[t-1], tiers[t]
		gap := hi.Y - lo.Y
		if gap <= tierTolerance {
			continue
		}
		req := maxHalfH(boxes, hi.Nodes) + maxHalfH(boxes, lo.Nodes) + clearance
		req = math.Max(req, labeledEdgeDemand(d, boxes, opts.LabelHalfHeights, lo, hi))
		if need := req / gap; need > factor {
			factor = need
		}
	}
	if factor > maxScale {
		factor = maxScale
	}
	if factor <= 1 {
		return boxes, d, 1.0
	}

	scaled := d.Clone()
	yMin := tiers[0].Y
	out := make([]diagram.Box, len(boxes))
	for i, n := range scaled.Nodes {
		cy := yMin + (n.CY-yMin)*factor
		scaled.Nodes[i].CY = cy
		out[i] = boxes[i].Recenter(n.CX, cy)
	}
	return out, scaled, factor
}

// labeledEdgeDemand returns the largest gap any labeled edge crossing
// between the two tiers requires. Near-vertical edges pass their label
// between the boxes; steep elbow edges route past the lower box twice,
// so they demand a second box height.
func labeledEdgeDemand(d *diagram.Diagram, boxes []diagram.Box, labelHalfH []float64, lo, hi Tier) float64 {
	demand := 0.0
	for ei, e := range d.Edges {
		if ei >= len(labelHalfH) || labelHalfH[ei] <= 0 {
			continue
		}
		si, ok := d.NodeIndex(e.Src)
		if !ok {
			continue
		}
		di, ok := d.NodeIndex(e.Dst)
		if !ok {
			continue
		}
		sy := quantize(d.Nodes[si].CY)
		dy := quantize(d.Nodes[di].CY)
		crosses := (sy == lo.Y && dy == hi.Y) || (sy == hi.Y && dy == lo.Y)
		if !crosses {
			continue
		}

		vx := d.Nodes[di].CX - d.Nodes[si].CX
		vy := d.Nodes[di].CY - d.Nodes[si].CY
		noOverride := e.Exit == diagram.FaceAuto && e.Entry == diagram.FaceAuto
		nearVert := noOverride && math.Abs(vy) > tierTolerance && math.Abs(vx) < math.Abs(vy)*0.25
		primVert := (!e.Exit.Horizontal() && e.Exit != diagram.FaceAuto && e.Entry.Horizontal()) ||
			(noOverride && !nearVert && math.Abs(vx) > tierTolerance && math.Abs(vy) >= math.Abs(vx)*0.75)
		if !nearVert && !primVert {
			continue
		}

		upper, lower := si, di
		if sy != hi.Y {
			upper, lower = di, si
		}
		lhh := labelHalfH[ei]
		var req float64
		if nearVert {
			req = boxes[upper].HalfH() + boxes[lower].HalfH() + 2*lhh + 0.6
		} else {
			req = boxes[upper].HalfH() + 2*boxes[lower].HalfH() + 2*lhh + 0.2
		}
		demand = math.Max(demand, req)
	}
	return demand
}

func maxHalfH(boxes []diagram.Box, idxs []int) float64 {
	m := 0.0
	for _, i := range idxs {
		m = math.Max(m, boxes[i].HalfH())
	}
	return m
}

func quantize(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
