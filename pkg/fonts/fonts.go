// Package fonts provides the typefaces used for measurement and raster
// rendering.
//
// The Go fonts ship embedded in golang.org/x/image, so no font files need
// to exist on the host. Parsing happens once on first use.
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	once    sync.Once
	regular *truetype.Font
	bold    *truetype.Font
	initErr error
)

func parse() {
	once.Do(func() {
		r, err := truetype.Parse(goregular.TTF)
		if err != nil {
			initErr = fmt.Errorf("parse go regular: %w", err)
			return
		}
		b, err := truetype.Parse(gobold.TTF)
		if err != nil {
			initErr = fmt.Errorf("parse go bold: %w", err)
			return
		}
		regular, bold = r, b
	})
}

// Regular returns the Go Regular typeface.
func Regular() (*truetype.Font, error) {
	parse()
	return regular, initErr
}

// Bold returns the Go Bold typeface.
func Bold() (*truetype.Font, error) {
	parse()
	return bold, initErr
}

// Face builds a font.Face at the given point size. Callers own the face
// and should Close it when done.
func Face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// FontFamily is the family name sinks should declare so rendered text
// matches the measured extents.
const FontFamily = "Go"
