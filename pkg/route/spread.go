package route

import (
	"github.com/matzehuels/flowline/pkg/diagram"
)

// spreadFraction limits anchors to the middle half of a face, keeping
// them clear of the box corners.
const spreadFraction = 0.5

// spread redistributes anchor points among edges that share a face.
//
// Exit and entry ends are grouped independently by (node, face). Within a
// group, anchors are placed evenly across the middle half of the face in
// the edges' original input order, so anchors are strictly monotonic
// along the face and no two coincide. Bowed edges keep their midpoint
// anchor: a bow separates them visually already, and moving its endpoint
// would change the arc.
func spread(decisions []Decision, boxes []diagram.Box, tip float64) {
	type key struct {
		node int
		face diagram.Face
	}
	exits := make(map[key][]int)
	entries := make(map[key][]int)
	for i, dec := range decisions {
		if dec.Style == Curved {
			continue
		}
		exits[key{dec.Src, dec.Exit}] = append(exits[key{dec.Src, dec.Exit}], i)
		entries[key{dec.Dst, dec.Entry}] = append(entries[key{dec.Dst, dec.Entry}], i)
	}

	for k, idxs := range exits {
		if len(idxs) < 2 {
			continue
		}
		for slot, i := range idxs {
			decisions[i].From = anchorAt(boxes[k.node], k.face, slot, len(idxs), 0)
		}
	}
	for k, idxs := range entries {
		if len(idxs) < 2 {
			continue
		}
		for slot, i := range idxs {
			decisions[i].To = anchorAt(boxes[k.node], k.face, slot, len(idxs), tip)
		}
	}
}

// anchorAt places slot k of n evenly over the face's spread interval.
// Horizontal faces advance along x with increasing slot; vertical faces
// advance downward, so the first edge lands nearest the top.
func anchorAt(b diagram.Box, f diagram.Face, slot, n int, tip float64) diagram.Point {
	p := entryAnchor(b, f, tip)
	t := float64(slot)/float64(n-1)*2 - 1 // -1 .. +1 across the group

	switch f {
	case diagram.FaceTop, diagram.FaceBottom:
		p.X += t * b.HalfW() * spreadFraction
	default:
		p.Y -= t * b.HalfH() * spreadFraction
	}
	return p
}
