// Package pipeline provides the core rendering pipeline for flowline.
//
// This package implements the complete measure → space → route → render
// pipeline used by the CLI and the preview server. Centralizing it keeps
// behavior identical across entry points.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Measure: size each node box to its label via the text-measurement
//     backend
//  2. Space: detect vertical crowding between tiers and scale
//     y-coordinates uniformly
//  3. Route: resolve exit/entry faces, spread shared-face anchors, pick
//     connector styles
//  4. Render: draw boxes, connectors, and labels into the requested sinks
//
// Every invocation is a pure function of the diagram and options: no
// state survives between calls except the optional artifact cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Formats: []string{"svg"}}
//	result, err := runner.Execute(ctx, d, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	flowerrors "github.com/matzehuels/flowline/pkg/errors"
	"github.com/matzehuels/flowline/pkg/layout"
	"github.com/matzehuels/flowline/pkg/render/styles"
	"github.com/matzehuels/flowline/pkg/route"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 1440.0

	// DefaultPad is the padding in diagram units added around measured
	// text when sizing node boxes.
	DefaultPad = 0.2

	// DefaultTip is the gap in diagram units between an entry anchor and
	// the box face, keeping arrowheads off the border.
	DefaultTip = 0.05

	// DefaultMaxAutoscale caps the vertical auto-spacing factor.
	DefaultMaxAutoscale = layout.DefaultMaxAutoscale

	// DefaultCornerRadius is the rounded elbow corner radius in diagram
	// units.
	DefaultCornerRadius = route.DefaultCornerRadius

	// DefaultFontSize is the node label font size in points.
	DefaultFontSize = styles.NodeFontSize

	// DefaultEdgeFontSize is the edge label font size in points.
	DefaultEdgeFontSize = styles.EdgeFontSize
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidateFormats checks that every requested format is supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !ValidFormats[f] {
			return flowerrors.New(flowerrors.ErrCodeInvalidFormat, "unsupported format %q (valid: svg, png, dot, json)", f)
		}
	}
	return nil
}

// Options configures a pipeline run. Zero values fall back to the
// package defaults.
type Options struct {
	// Formats lists the artifacts to produce: svg, png, dot, json.
	Formats []string

	// Width is the viewport width in pixels. Height follows from the
	// diagram's aspect ratio after auto-spacing.
	Width float64

	// Title, when set, is drawn above the diagram. Overrides the
	// diagram's own title.
	Title string

	// NodeWidth and NodeHeight, in diagram units, override measured box
	// dimensions when positive.
	NodeWidth  float64
	NodeHeight float64

	// MaxAutoscale caps the vertical spacing scale factor.
	MaxAutoscale float64

	// CornerRadius is the rounded elbow corner radius in diagram units.
	CornerRadius float64

	// FontSize and EdgeFontSize are label sizes in points.
	FontSize     float64
	EdgeFontSize float64

	// Pad is the box padding in diagram units.
	Pad float64

	// NoCache bypasses the artifact cache for this run.
	NoCache bool
}

// ValidateAndSetDefaults normalizes the options in place.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.MaxAutoscale == 0 {
		o.MaxAutoscale = DefaultMaxAutoscale
	} else if o.MaxAutoscale < 1 {
		return flowerrors.New(flowerrors.ErrCodeInvalidOption, "max-autoscale must be >= 1, got %g", o.MaxAutoscale)
	}
	if o.NodeWidth < 0 || o.NodeHeight < 0 {
		return flowerrors.New(flowerrors.ErrCodeInvalidOption, "node dimension overrides must not be negative")
	}
	if o.CornerRadius <= 0 {
		o.CornerRadius = DefaultCornerRadius
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	if o.EdgeFontSize <= 0 {
		o.EdgeFontSize = DefaultEdgeFontSize
	}
	if o.Pad <= 0 {
		o.Pad = DefaultPad
	}
	return nil
}
