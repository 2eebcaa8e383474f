package sink

import (
	"bytes"
	"image/png"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/matzehuels/flowline/pkg/diagram"
	"github.com/matzehuels/flowline/pkg/fonts"
	"github.com/matzehuels/flowline/pkg/render"
	"github.com/matzehuels/flowline/pkg/render/styles"
	"github.com/matzehuels/flowline/pkg/route"
)

// PNGOption configures the PNG canvas.
type PNGOption func(*PNG)

// WithPNGTitle draws a diagram title centered at the top.
func WithPNGTitle(title string) PNGOption {
	return func(p *PNG) { p.title = title }
}

// WithPNGCornerRadius sets the rounded elbow corner radius in diagram units.
func WithPNGCornerRadius(r float64) PNGOption {
	return func(p *PNG) { p.cornerRadius = r }
}

// WithPNGScale sets the supersampling factor (default 2 for 2x output).
func WithPNGScale(scale float64) PNGOption {
	return func(p *PNG) { p.scale = scale }
}

// WithPNGFontSizes sets the node and edge label sizes in points. They
// must match the sizes used for measurement or boxes will not fit their
// text.
func WithPNGFontSizes(node, edge float64) PNGOption {
	return func(p *PNG) {
		if node > 0 {
			p.nodeFontSize = node
		}
		if edge > 0 {
			p.edgeFontSize = edge
		}
	}
}

// PNG rasterizes diagram primitives with a fogleman/gg context.
type PNG struct {
	frame        render.Frame
	dc           *gg.Context
	title        string
	cornerRadius float64
	nodeFontSize float64
	edgeFontSize float64
	scale        float64
	err          error
}

// NewPNG opens a raster canvas sized to the frame's viewport. Font parse
// failures surface from Bytes; drawing calls on a broken canvas are
// ignored.
func NewPNG(frame render.Frame, opts ...PNGOption) *PNG {
	p := &PNG{
		frame:        frame,
		cornerRadius: route.DefaultCornerRadius,
		nodeFontSize: styles.NodeFontSize,
		edgeFontSize: styles.EdgeFontSize,
		scale:        2,
	}
	for _, opt := range opts {
		opt(p)
	}
	w := int(math.Ceil(frame.WidthPx() * p.scale))
	h := int(math.Ceil(frame.HeightPx() * p.scale))
	p.dc = gg.NewContext(max(w, 1), max(h, 1))
	p.dc.Scale(p.scale, p.scale)
	p.dc.SetHexColor(styles.ColorWhite)
	p.dc.Clear()

	if p.title != "" {
		p.text(frame.WidthPx()/2, 16, p.title, 16, true, styles.ColorTextDark)
	}
	return p
}

// DrawBox paints a rounded node box and its centered label.
func (p *PNG) DrawBox(b diagram.Box, st render.BoxStyle) {
	if p.err != nil {
		return
	}
	x, y := p.frame.ToPx(diagram.Point{X: b.X0, Y: b.Y1})
	w := p.frame.Px(b.Width())
	h := p.frame.Px(b.Height())

	p.dc.DrawRoundedRectangle(x, y, w, h, 6)
	p.dc.SetHexColor(st.Fill)
	p.dc.FillPreserve()
	if st.Outline {
		p.dc.SetHexColor(styles.ColorContext)
		p.dc.SetLineWidth(styles.BoxStrokeWidth)
		p.dc.Stroke()
	} else {
		p.dc.ClearPath()
	}

	if st.Label != "" {
		cx, cy := p.frame.ToPx(diagram.Point{X: b.CenterX(), Y: b.CenterY()})
		p.text(cx, cy, st.Label, p.nodeFontSize, true, st.TextColor)
	}
}

// DrawConnector paints a straight, elbowed, or bowed arrow.
func (p *PNG) DrawConnector(dec route.Decision, st render.LineStyle) {
	if p.err != nil {
		return
	}
	color := st.Color
	if color == "" {
		color = styles.ColorTextDark
	}
	x0, y0 := p.frame.ToPx(dec.From)
	x1, y1 := p.frame.ToPx(dec.To)

	p.dc.SetHexColor(color)
	p.dc.SetLineWidth(styles.EdgeStrokeWidth)
	if st.Dashed {
		p.dc.SetDash(6, 4)
	} else {
		p.dc.SetDash()
	}

	var tipFromX, tipFromY float64
	switch dec.Style {
	case route.Elbow:
		bx, by := p.frame.ToPx(dec.BendPoint())
		r := math.Min(p.frame.Px(p.cornerRadius), math.Min(math.Hypot(bx-x0, by-y0), math.Hypot(x1-bx, y1-by)))
		inX, inY := pointToward(bx, by, x0, y0, r)
		outX, outY := pointToward(bx, by, x1, y1, r)
		p.dc.MoveTo(x0, y0)
		p.dc.LineTo(inX, inY)
		p.dc.QuadraticTo(bx, by, outX, outY)
		p.dc.LineTo(x1, y1)
		tipFromX, tipFromY = bx, by
	case route.Curved:
		cx, cy := p.frame.ToPx(dec.ControlPoint())
		p.dc.MoveTo(x0, y0)
		p.dc.QuadraticTo(cx, cy, x1, y1)
		tipFromX, tipFromY = cx, cy
	default:
		p.dc.MoveTo(x0, y0)
		p.dc.LineTo(x1, y1)
		tipFromX, tipFromY = x0, y0
	}
	p.dc.Stroke()
	p.dc.SetDash()
	p.arrowhead(tipFromX, tipFromY, x1, y1, color)
}

// DrawLabel paints edge label text over a translucent plate.
func (p *PNG) DrawLabel(at diagram.Point, text, color string) {
	if p.err != nil || text == "" {
		return
	}
	if color == "" {
		color = styles.ColorTextDark
	}
	x, y := p.frame.ToPx(at)
	lines := strings.Split(text, "\n")
	lineH := p.edgeFontSize * styles.LineSpacing
	plateW := styles.ApproxTextWidth(text, p.edgeFontSize) + 8
	plateH := float64(len(lines))*lineH + 4

	p.dc.DrawRoundedRectangle(x-plateW/2, y-plateH/2, plateW, plateH, 3)
	p.dc.SetRGBA(0.96, 0.96, 0.96, 0.95)
	p.dc.Fill()
	p.text(x, y, text, p.edgeFontSize, false, color)
}

// Bytes encodes the raster as PNG.
func (p *PNG) Bytes() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// text draws centered text, one line at a time, in pixel space. Weight
// must match the weight the text was measured with.
func (p *PNG) text(x, y float64, text string, size float64, bold bool, color string) {
	font, err := fonts.Bold()
	if !bold {
		font, err = fonts.Regular()
	}
	if err != nil {
		p.err = err
		return
	}
	face := fonts.Face(font, size)
	defer face.Close()
	p.dc.SetFontFace(face)
	p.dc.SetHexColor(color)

	lines := strings.Split(text, "\n")
	lineH := size * styles.LineSpacing
	startY := y - lineH*float64(len(lines)-1)/2
	for i, line := range lines {
		p.dc.DrawStringAnchored(line, x, startY+lineH*float64(i), 0.5, 0.35)
	}
}

func (p *PNG) arrowhead(x0, y0, x1, y1 float64, color string) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	size := styles.ArrowSize
	bx, by := x1-ux*size, y1-uy*size
	px, py := -uy*size*0.45, ux*size*0.45

	p.dc.MoveTo(x1, y1)
	p.dc.LineTo(bx+px, by+py)
	p.dc.LineTo(bx-px, by-py)
	p.dc.ClosePath()
	p.dc.SetHexColor(color)
	p.dc.Fill()
}

var _ render.Canvas = (*PNG)(nil)
