package diagram

// Box is an axis-aligned rectangle in diagram units with X0 < X1 and
// Y0 < Y1. Boxes are produced by the measurer and consumed by the
// auto-spacer and router; they are never stored on the diagram itself.
type Box struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewBox builds a box centered on (cx, cy) with the given half-extents.
func NewBox(cx, cy, halfW, halfH float64) Box {
	return Box{X0: cx - halfW, Y0: cy - halfH, X1: cx + halfW, Y1: cy + halfH}
}

func (b Box) Width() float64  { return b.X1 - b.X0 }
func (b Box) Height() float64 { return b.Y1 - b.Y0 }
func (b Box) CenterX() float64 { return (b.X0 + b.X1) / 2 }
func (b Box) CenterY() float64 { return (b.Y0 + b.Y1) / 2 }
func (b Box) HalfW() float64  { return (b.X1 - b.X0) / 2 }
func (b Box) HalfH() float64  { return (b.Y1 - b.Y0) / 2 }

// FacePoint returns the midpoint of the given face, the default anchor
// before face spreading.
func (b Box) FacePoint(f Face) Point {
	switch f {
	case FaceTop:
		return Point{b.CenterX(), b.Y1}
	case FaceBottom:
		return Point{b.CenterX(), b.Y0}
	case FaceLeft:
		return Point{b.X0, b.CenterY()}
	default:
		return Point{b.X1, b.CenterY()}
	}
}

// Recenter returns a copy of the box moved so its center is (cx, cy).
// Used by the auto-spacer, which shifts y-centers without resizing.
func (b Box) Recenter(cx, cy float64) Box {
	return NewBox(cx, cy, b.HalfW(), b.HalfH())
}

// Point is a coordinate in diagram units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
