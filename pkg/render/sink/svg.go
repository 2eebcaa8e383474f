// Package sink provides concrete Canvas implementations: hand-built SVG,
// rasterized PNG via fogleman/gg, and a Graphviz DOT structural preview.
package sink

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/flowline/pkg/diagram"
	"github.com/matzehuels/flowline/pkg/fonts"
	"github.com/matzehuels/flowline/pkg/render"
	"github.com/matzehuels/flowline/pkg/render/styles"
	"github.com/matzehuels/flowline/pkg/route"
)

// SVGOption configures the SVG canvas.
type SVGOption func(*SVG)

// WithTitle draws a diagram title centered at the top of the viewport.
func WithTitle(title string) SVGOption {
	return func(s *SVG) { s.title = title }
}

// WithCornerRadius sets the rounded elbow corner radius in diagram units.
func WithCornerRadius(r float64) SVGOption {
	return func(s *SVG) { s.cornerRadius = r }
}

// WithFontSizes sets the node and edge label sizes in points. They must
// match the sizes used for measurement or boxes will not fit their text.
func WithFontSizes(node, edge float64) SVGOption {
	return func(s *SVG) {
		if node > 0 {
			s.nodeFontSize = node
		}
		if edge > 0 {
			s.edgeFontSize = edge
		}
	}
}

// SVG writes diagram primitives into an SVG document. Elements are
// emitted in call order, so callers control layering.
type SVG struct {
	frame        render.Frame
	buf          bytes.Buffer
	title        string
	cornerRadius float64
	nodeFontSize float64
	edgeFontSize float64
	closed       bool
}

// NewSVG opens an SVG document sized to the frame's viewport.
func NewSVG(frame render.Frame, opts ...SVGOption) *SVG {
	s := &SVG{
		frame:        frame,
		cornerRadius: route.DefaultCornerRadius,
		nodeFontSize: styles.NodeFontSize,
		edgeFontSize: styles.EdgeFontSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	w, h := frame.WidthPx(), frame.HeightPx()
	fmt.Fprintf(&s.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	fmt.Fprintf(&s.buf, "  <style>text { font-family: %s, 'Helvetica Neue', sans-serif; }</style>\n", fonts.FontFamily)
	if s.title != "" {
		fmt.Fprintf(&s.buf, `  <text x="%.1f" y="22" text-anchor="middle" font-size="16" font-weight="bold" fill="%s">%s</text>`+"\n",
			w/2, styles.ColorTextDark, styles.EscapeXML(s.title))
	}
	return s
}

// DrawBox paints a rounded node box and its centered label.
func (s *SVG) DrawBox(b diagram.Box, st render.BoxStyle) {
	x, y := s.frame.ToPx(diagram.Point{X: b.X0, Y: b.Y1})
	w := s.frame.Px(b.Width())
	h := s.frame.Px(b.Height())

	stroke := "none"
	strokeW := 0.0
	if st.Outline {
		stroke = styles.ColorContext
		strokeW = styles.BoxStrokeWidth
	}
	fmt.Fprintf(&s.buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="%s" stroke-width="%.1f"/>`+"\n",
		x, y, w, h, st.Fill, stroke, strokeW)

	if st.Label != "" {
		s.multilineText(b.CenterX(), b.CenterY(), st.Label, s.nodeFontSize, true, st.TextColor)
	}
}

// DrawConnector paints a straight, elbowed, or bowed arrow between the
// decision's anchor points.
func (s *SVG) DrawConnector(dec route.Decision, st render.LineStyle) {
	color := st.Color
	if color == "" {
		color = styles.ColorTextDark
	}
	dash := ""
	if st.Dashed {
		dash = ` stroke-dasharray="6,4"`
	}

	x0, y0 := s.frame.ToPx(dec.From)
	x1, y1 := s.frame.ToPx(dec.To)

	var path string
	var tipFromX, tipFromY float64 // point the arrowhead points away from
	switch dec.Style {
	case route.Elbow:
		bx, by := s.frame.ToPx(dec.BendPoint())
		path = elbowPath(x0, y0, bx, by, x1, y1, s.frame.Px(s.cornerRadius))
		tipFromX, tipFromY = bx, by
	case route.Curved:
		cx, cy := s.frame.ToPx(dec.ControlPoint())
		path = fmt.Sprintf("M %.1f %.1f Q %.1f %.1f %.1f %.1f", x0, y0, cx, cy, x1, y1)
		tipFromX, tipFromY = cx, cy
	default:
		path = fmt.Sprintf("M %.1f %.1f L %.1f %.1f", x0, y0, x1, y1)
		tipFromX, tipFromY = x0, y0
	}

	fmt.Fprintf(&s.buf, `  <path d="%s" fill="none" stroke="%s" stroke-width="%.1f"%s/>`+"\n",
		path, color, styles.EdgeStrokeWidth, dash)
	s.arrowhead(tipFromX, tipFromY, x1, y1, color)
}

// DrawLabel paints edge label text over a translucent plate so it stays
// readable where it crosses a connector.
func (s *SVG) DrawLabel(at diagram.Point, text, color string) {
	if text == "" {
		return
	}
	if color == "" {
		color = styles.ColorTextDark
	}
	x, y := s.frame.ToPx(at)
	lines := strings.Split(text, "\n")
	lineH := s.edgeFontSize * styles.LineSpacing
	plateW := styles.ApproxTextWidth(text, s.edgeFontSize) + 8
	plateH := float64(len(lines))*lineH + 4
	fmt.Fprintf(&s.buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="3" fill="%s" opacity="0.95"/>`+"\n",
		x-plateW/2, y-plateH/2, plateW, plateH, styles.ColorBackground)
	s.multilineText(at.X, at.Y, text, s.edgeFontSize, false, color)
}

// Bytes closes the document and returns the SVG.
func (s *SVG) Bytes() ([]byte, error) {
	if !s.closed {
		s.buf.WriteString("</svg>\n")
		s.closed = true
	}
	return s.buf.Bytes(), nil
}

// multilineText emits centered text, one tspan per line. Weight must
// match the weight the text was measured with.
func (s *SVG) multilineText(cx, cy float64, text string, size float64, bold bool, color string) {
	x, y := s.frame.ToPx(diagram.Point{X: cx, Y: cy})
	lines := strings.Split(text, "\n")
	lineH := size * styles.LineSpacing
	startY := y - lineH*float64(len(lines)-1)/2

	weight := "normal"
	if bold {
		weight = "bold"
	}
	fmt.Fprintf(&s.buf, `  <text x="%.1f" text-anchor="middle" font-size="%.0f" font-weight="%s" fill="%s">`, x, size, weight, color)
	for i, line := range lines {
		fmt.Fprintf(&s.buf, `<tspan x="%.1f" y="%.1f" dominant-baseline="middle">%s</tspan>`,
			x, startY+lineH*float64(i), styles.EscapeXML(line))
	}
	s.buf.WriteString("</text>\n")
}

// arrowhead paints a filled triangle at (x1, y1) pointing away from
// (x0, y0).
func (s *SVG) arrowhead(x0, y0, x1, y1 float64, color string) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	size := styles.ArrowSize
	bx, by := x1-ux*size, y1-uy*size
	px, py := -uy*size*0.45, ux*size*0.45
	fmt.Fprintf(&s.buf, `  <polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="%s"/>`+"\n",
		x1, y1, bx+px, by+py, bx-px, by-py, color)
}

// elbowPath builds a two-segment path with a rounded corner at the bend.
// The radius shrinks to fit arms shorter than the configured corner.
func elbowPath(x0, y0, bx, by, x1, y1, r float64) string {
	arm0 := math.Hypot(bx-x0, by-y0)
	arm1 := math.Hypot(x1-bx, y1-by)
	r = math.Min(r, math.Min(arm0, arm1))
	if r < 1 {
		return fmt.Sprintf("M %.1f %.1f L %.1f %.1f L %.1f %.1f", x0, y0, bx, by, x1, y1)
	}
	inX, inY := pointToward(bx, by, x0, y0, r)
	outX, outY := pointToward(bx, by, x1, y1, r)
	return fmt.Sprintf("M %.1f %.1f L %.1f %.1f Q %.1f %.1f %.1f %.1f L %.1f %.1f",
		x0, y0, inX, inY, bx, by, outX, outY, x1, y1)
}

// pointToward returns the point at distance r from (x, y) toward (tx, ty).
func pointToward(x, y, tx, ty, r float64) (float64, float64) {
	dx, dy := tx-x, ty-y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return x, y
	}
	return x + dx/length*r, y + dy/length*r
}

var _ render.Canvas = (*SVG)(nil)
