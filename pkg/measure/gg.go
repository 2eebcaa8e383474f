package measure

import (
	"strings"

	"github.com/fogleman/gg"

	"github.com/matzehuels/flowline/pkg/fonts"
)

// GGMeasurer measures text with an off-screen fogleman/gg context using
// the embedded Go fonts. The drawing context and font face are created
// and released within each call, so no backend state leaks between
// measurements and nothing from the measurement pass can appear in
// rendered output.
type GGMeasurer struct{}

// NewGGMeasurer verifies the embedded fonts parse and returns a measurer.
// Font parse failures are fatal configuration errors.
func NewGGMeasurer() (*GGMeasurer, error) {
	if _, err := fonts.Regular(); err != nil {
		return nil, err
	}
	if _, err := fonts.Bold(); err != nil {
		return nil, err
	}
	return &GGMeasurer{}, nil
}

// MeasureText returns the pixel extent of s at the given style.
func (g *GGMeasurer) MeasureText(s string, style TextStyle) (float64, float64, error) {
	font, err := fonts.Regular()
	if style.Bold {
		font, err = fonts.Bold()
	}
	if err != nil {
		return 0, 0, err
	}

	size := style.Size
	if size <= 0 {
		size = 12
	}
	spacing := style.LineSpacing
	if spacing <= 0 {
		spacing = 1.35
	}

	face := fonts.Face(font, size)
	defer face.Close()

	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)

	if !strings.Contains(s, "\n") {
		w, h := dc.MeasureString(s)
		return w, h, nil
	}
	w, h := dc.MeasureMultilineString(s, spacing)
	return w, h, nil
}

var _ TextMeasurer = (*GGMeasurer)(nil)
