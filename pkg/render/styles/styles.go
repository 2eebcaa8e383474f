// Package styles holds the design tokens shared by all rendering sinks.
package styles

import (
	"bytes"
	"encoding/xml"
	"strings"
	"unicode/utf8"
)

// Semantic palette. Sinks never hardcode hex values.
const (
	ColorTextDark   = "#323034" // primary text and default edge color
	ColorBackground = "#f5f5f5" // node fill fallback and label plates
	ColorContext    = "#c0c0c0" // de-emphasized fill, outline accent
	ColorWhite      = "#ffffff"
)

// Typography defaults, in points.
const (
	NodeFontSize = 12.0
	EdgeFontSize = 11.0
	LineSpacing  = 1.35
)

// Stroke widths in pixels.
const (
	EdgeStrokeWidth = 1.8
	BoxStrokeWidth  = 1.2
)

// ArrowSize is the arrowhead length in pixels.
const ArrowSize = 9.0

// charWidthRatio approximates glyph advance as a fraction of font size,
// used by sinks that need a text extent without a measurement backend
// (label background plates).
const charWidthRatio = 0.55

// ApproxTextWidth estimates the pixel width of s at the given font size.
// Multiline strings report their widest line.
func ApproxTextWidth(s string, fontSize float64) float64 {
	longest := 0
	for _, line := range strings.Split(s, "\n") {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	return float64(longest) * fontSize * charWidthRatio
}

// EscapeXML escapes text for embedding in SVG.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
