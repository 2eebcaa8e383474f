package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowline/pkg/diagram"
	"github.com/matzehuels/flowline/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output       string   // output file path (or base path for multiple formats)
	diagramName  string   // which diagram to render from a multi-diagram file
	formats      []string // output formats: svg, png, dot, json
	width        float64  // viewport width in pixels
	title        string   // title override drawn above the diagram
	nodeWidth    float64  // fixed node width in diagram units (0 = measured)
	nodeHeight   float64  // fixed node height in diagram units (0 = measured)
	maxAutoscale float64  // cap on the vertical auto-spacing factor
	cornerRadius float64  // rounded elbow corner radius in diagram units
	fontSize     float64  // node label font size in points
	edgeFontSize float64  // edge label font size in points
	pad          float64  // box padding in diagram units
	noCache      bool     // bypass the artifact cache
}

// renderCommand creates the render command for generating diagram artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{
		width:        pipeline.DefaultWidth,
		maxAutoscale: pipeline.DefaultMaxAutoscale,
		cornerRadius: pipeline.DefaultCornerRadius,
		fontSize:     pipeline.DefaultFontSize,
		edgeFontSize: pipeline.DefaultEdgeFontSize,
		pad:          pipeline.DefaultPad,
	}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram file to SVG, PNG, DOT, or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.diagramName, "diagram", "d", "", "diagram name in a multi-diagram file")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "viewport width in pixels")
	cmd.Flags().StringVar(&opts.title, "title", "", "title drawn above the diagram")
	cmd.Flags().Float64Var(&opts.nodeWidth, "node-width", 0, "fixed node width in diagram units (0 = measure labels)")
	cmd.Flags().Float64Var(&opts.nodeHeight, "node-height", 0, "fixed node height in diagram units (0 = measure labels)")
	cmd.Flags().Float64Var(&opts.maxAutoscale, "max-autoscale", opts.maxAutoscale, "cap on vertical auto-spacing growth")
	cmd.Flags().Float64Var(&opts.cornerRadius, "corner-radius", opts.cornerRadius, "rounded elbow corner radius in diagram units")
	cmd.Flags().Float64Var(&opts.fontSize, "font-size", opts.fontSize, "node label font size in points")
	cmd.Flags().Float64Var(&opts.edgeFontSize, "edge-font-size", opts.edgeFontSize, "edge label font size in points")
	cmd.Flags().Float64Var(&opts.pad, "pad", opts.pad, "box padding in diagram units")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")

	return cmd
}

// runRender loads the diagram file, picks a diagram, runs the pipeline, and
// writes the requested artifacts.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	file, err := diagram.ReadFile(input)
	if err != nil {
		return err
	}

	name, err := pickDiagram(file, opts.diagramName)
	if err != nil {
		return err
	}
	d := file.Diagrams[name]
	c.Logger.Debugf("Rendering diagram %q from %s", name, input)

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s", name))
	spinner.Start()

	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, d, pipeline.Options{
		Formats:      opts.formats,
		Width:        opts.width,
		Title:        opts.title,
		NodeWidth:    opts.nodeWidth,
		NodeHeight:   opts.nodeHeight,
		MaxAutoscale: opts.maxAutoscale,
		CornerRadius: opts.cornerRadius,
		FontSize:     opts.fontSize,
		EdgeFontSize: opts.edgeFontSize,
		Pad:          opts.pad,
		NoCache:      opts.noCache,
	})
	spinner.Stop()
	if spinner.Cancelled() {
		printError("Render cancelled")
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Rendered %d artifact(s)", len(result.Artifacts)))

	base := basePath(opts.output, input, name, len(file.Diagrams) > 1)
	paths, err := writeArtifacts(result.Artifacts, opts.formats, opts.output, base)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", name)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheHit)
	if result.Scale > 1 {
		printDetail("Auto-spaced vertically by %.2fx", result.Scale)
	}
	for _, path := range paths {
		printFile(path)
	}
	return nil
}

// basePath derives the base output path. An explicit output wins with any
// known format extension stripped; otherwise the input path is used, with
// the diagram name appended when the file defines several diagrams.
func basePath(output, input, name string, multi bool) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if multi {
		base += "_" + name
	}
	return base
}

// writeArtifacts writes each rendered format to disk and returns the paths.
// A single format with an explicit output keeps the output path verbatim.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, base string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if output != "" && len(formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
