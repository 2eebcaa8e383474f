package pipeline

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowline/pkg/cache"
	"github.com/matzehuels/flowline/pkg/diagram"
	flowerrors "github.com/matzehuels/flowline/pkg/errors"
	"github.com/matzehuels/flowline/pkg/layout"
	"github.com/matzehuels/flowline/pkg/measure"
	"github.com/matzehuels/flowline/pkg/observability"
	"github.com/matzehuels/flowline/pkg/render"
	"github.com/matzehuels/flowline/pkg/render/sink"
	"github.com/matzehuels/flowline/pkg/render/styles"
	"github.com/matzehuels/flowline/pkg/route"
)

// Runner executes the rendering pipeline with injected collaborators.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Measurer measure.TextMeasurer // lazily constructed when nil
}

// NewRunner creates a runner. Nil arguments fall back to a null cache,
// the default keyer, and the default logger. The text measurer is
// created on first use so tests can inject a fake without touching a
// font backend.
func NewRunner(c cache.Cache, k cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: k, Logger: logger}
}

// Stats captures timing and size information for one run.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	MeasureTime time.Duration
	LayoutTime  time.Duration
	RouteTime   time.Duration
	RenderTime  time.Duration
	TotalTime   time.Duration
}

// Result holds the artifacts and metadata from one pipeline run.
type Result struct {
	// Artifacts maps format name to output bytes.
	Artifacts map[string][]byte

	// Scale is the vertical auto-spacing factor that was applied.
	Scale float64

	// RunID identifies this execution in log output.
	RunID string

	// DiagramHash is the content hash of the diagram definition.
	DiagramHash string

	// CacheHit reports whether every artifact came from the cache.
	CacheHit bool

	Stats Stats
}

// Execute runs the full pipeline for one diagram.
func (r *Runner) Execute(ctx context.Context, d *diagram.Diagram, opts Options) (*Result, error) {
	start := time.Now()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, wrapValidation(err)
	}

	raw, err := diagram.Marshal(d)
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeInternal, err, "hash diagram")
	}

	res := &Result{
		Artifacts:   make(map[string][]byte, len(opts.Formats)),
		RunID:       uuid.NewString(),
		DiagramHash: cache.Hash(raw),
	}
	res.Stats.NodeCount = d.NodeCount()
	res.Stats.EdgeCount = d.EdgeCount()

	logger := r.Logger.With("run_id", res.RunID[:8], "nodes", res.Stats.NodeCount, "edges", res.Stats.EdgeCount)

	// Cache lookup first: if every requested format is cached the
	// expensive stages are skipped entirely.
	missing := opts.Formats
	if !opts.NoCache {
		missing = r.loadCached(ctx, res, opts, logger)
		if len(missing) == 0 {
			res.CacheHit = true
			res.Stats.TotalTime = time.Since(start)
			logger.Info("all artifacts cached", "formats", opts.Formats)
			return res, nil
		}
	}

	// Measure: size node boxes to their labels.
	measureStart := time.Now()
	observability.Pipeline().OnMeasureStart(ctx, res.Stats.NodeCount)
	text := r.Measurer
	if text == nil {
		gg, err := measure.NewGGMeasurer()
		if err != nil {
			return nil, flowerrors.Wrap(flowerrors.ErrCodeMeasureFailed, err, "initialize text measurement")
		}
		text = gg
	}
	frame := render.FitFrame(d.Nodes, opts.Width)
	scale := measure.Scale{PxPerX: frame.PxPerUnit, PxPerY: frame.PxPerUnit}
	m := measure.New(text, scale)
	boxes, err := m.MeasureAll(d.Nodes, measure.Options{
		Style:      measure.TextStyle{Size: opts.FontSize, LineSpacing: styles.LineSpacing, Bold: true},
		Pad:        opts.Pad,
		NodeWidth:  opts.NodeWidth,
		NodeHeight: opts.NodeHeight,
	})
	if err != nil {
		observability.Pipeline().OnMeasureComplete(ctx, res.Stats.NodeCount, time.Since(measureStart), err)
		return nil, flowerrors.Wrap(flowerrors.ErrCodeMeasureFailed, err, "measure node labels")
	}
	labelHalfH, err := r.edgeLabelHalfHeights(d, text, scale, opts)
	if err != nil {
		observability.Pipeline().OnMeasureComplete(ctx, res.Stats.NodeCount, time.Since(measureStart), err)
		return nil, flowerrors.Wrap(flowerrors.ErrCodeMeasureFailed, err, "measure edge labels")
	}
	res.Stats.MeasureTime = time.Since(measureStart)
	observability.Pipeline().OnMeasureComplete(ctx, res.Stats.NodeCount, res.Stats.MeasureTime, nil)
	logger.Info("measured boxes", "duration", res.Stats.MeasureTime)

	// Space: open up crowded tiers, then refit the frame to the moved
	// centers. The x-range never changes, so PxPerUnit and with it the
	// measured box sizes stay valid.
	layoutStart := time.Now()
	clearance := 3*scale.ToUnitsY(opts.EdgeFontSize) + layout.DefaultClearance
	boxes, spaced, factor := layout.Autospace(d, boxes, layout.Options{
		MaxAutoscale:     opts.MaxAutoscale,
		Clearance:        clearance,
		LabelHalfHeights: labelHalfH,
	})
	frame = render.FitFrame(spaced.Nodes, opts.Width)
	res.Scale = factor
	res.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, factor, res.Stats.LayoutTime)
	logger.Info("spaced tiers", "factor", factor, "duration", res.Stats.LayoutTime)

	// Route: resolve faces, styles, and spread anchors.
	routeStart := time.Now()
	decisions, err := route.Route(spaced, boxes, route.Options{
		CornerRadius: opts.CornerRadius,
		Tip:          DefaultTip,
	})
	if err != nil {
		observability.Pipeline().OnRouteComplete(ctx, res.Stats.EdgeCount, time.Since(routeStart), err)
		return nil, wrapValidation(err)
	}
	res.Stats.RouteTime = time.Since(routeStart)
	observability.Pipeline().OnRouteComplete(ctx, res.Stats.EdgeCount, res.Stats.RouteTime, nil)
	logger.Info("routed edges", "decisions", len(decisions), "duration", res.Stats.RouteTime)

	// Render each missing format and store it back in the cache.
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, missing)
	title := opts.Title
	if title == "" {
		title = spaced.Title
	}
	for _, format := range missing {
		data, err := r.renderFormat(ctx, format, spaced, boxes, decisions, frame, title, opts)
		if err != nil {
			observability.Pipeline().OnRenderComplete(ctx, missing, time.Since(renderStart), err)
			return nil, flowerrors.Wrap(flowerrors.ErrCodeRenderFailed, err, "render %s", format)
		}
		res.Artifacts[format] = data
		if !opts.NoCache {
			key := r.Keyer.ArtifactKey(res.DiagramHash, artifactOpts(format, opts))
			if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
				logger.Warn("cache write failed", "format", format, "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}
	res.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, missing, res.Stats.RenderTime, nil)
	res.Stats.TotalTime = time.Since(start)
	logger.Info("rendered artifacts", "formats", missing, "duration", res.Stats.RenderTime)

	return res, nil
}

// loadCached fills res.Artifacts from the cache and returns the formats
// still missing.
func (r *Runner) loadCached(ctx context.Context, res *Result, opts Options, logger *log.Logger) []string {
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(res.DiagramHash, artifactOpts(format, opts))
		data, ok, err := r.Cache.Get(ctx, key)
		if err != nil {
			logger.Warn("cache read failed", "format", format, "error", err)
		}
		if ok {
			observability.Cache().OnCacheHit(ctx, "artifact")
			res.Artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
		missing = append(missing, format)
	}
	return missing
}

// edgeLabelHalfHeights measures each labeled edge's text, returning half
// heights in diagram units parallel to d.Edges. Unlabeled edges get zero.
func (r *Runner) edgeLabelHalfHeights(d *diagram.Diagram, text measure.TextMeasurer, scale measure.Scale, opts Options) ([]float64, error) {
	halfs := make([]float64, len(d.Edges))
	style := measure.TextStyle{Size: opts.EdgeFontSize, LineSpacing: styles.LineSpacing}
	for i, e := range d.Edges {
		if e.Label == "" {
			continue
		}
		_, h, err := text.MeasureText(e.Label, style)
		if err != nil {
			return nil, err
		}
		// Small allowance for the label plate drawn behind the text.
		halfs[i] = scale.ToUnitsY(h)/2 + 0.05
	}
	return halfs, nil
}

// renderFormat produces the bytes for one output format.
func (r *Runner) renderFormat(ctx context.Context, format string, d *diagram.Diagram, boxes []diagram.Box, decisions []route.Decision, frame render.Frame, title string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		c := sink.NewSVG(frame,
			sink.WithTitle(title),
			sink.WithCornerRadius(opts.CornerRadius),
			sink.WithFontSizes(opts.FontSize, opts.EdgeFontSize))
		drawDiagram(c, d, boxes, decisions)
		return c.Bytes()
	case FormatPNG:
		c := sink.NewPNG(frame,
			sink.WithPNGTitle(title),
			sink.WithPNGCornerRadius(opts.CornerRadius),
			sink.WithPNGFontSizes(opts.FontSize, opts.EdgeFontSize))
		drawDiagram(c, d, boxes, decisions)
		return c.Bytes()
	case FormatDOT:
		return []byte(sink.ToDOT(d)), nil
	case FormatJSON:
		return marshalLayout(d, boxes, decisions, frame)
	default:
		return nil, flowerrors.New(flowerrors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
}

// drawDiagram paints a routed diagram onto any canvas: connectors first
// so boxes cover the line ends, then boxes, then edge labels on top.
func drawDiagram(c render.Canvas, d *diagram.Diagram, boxes []diagram.Box, decisions []route.Decision) {
	for _, dec := range decisions {
		e := d.Edges[dec.Edge]
		color := e.Color
		if color == "" {
			color = styles.ColorTextDark
		}
		c.DrawConnector(dec, render.LineStyle{Color: color, Dashed: e.Dashed})
	}
	for i, n := range d.Nodes {
		fill := n.Fill
		if fill == "" {
			fill = styles.ColorBackground
		}
		textColor := n.TextColor
		if textColor == "" {
			textColor = styles.ColorTextDark
		}
		c.DrawBox(boxes[i], render.BoxStyle{
			Fill:      fill,
			TextColor: textColor,
			Label:     n.Label,
			Outline:   fill == styles.ColorBackground,
		})
	}
	for _, dec := range decisions {
		e := d.Edges[dec.Edge]
		if e.Label == "" {
			continue
		}
		color := e.Color
		if color == "" {
			color = styles.ColorTextDark
		}
		c.DrawLabel(dec.LabelAnchor(), e.Label, color)
	}
}

// artifactOpts projects the render options into the cache key space.
func artifactOpts(format string, opts Options) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:       format,
		Width:        opts.Width,
		MaxAutoscale: opts.MaxAutoscale,
		CornerRadius: opts.CornerRadius,
		NodeWidth:    opts.NodeWidth,
		NodeHeight:   opts.NodeHeight,
		FontSize:     opts.FontSize,
		EdgeFontSize: opts.EdgeFontSize,
		Pad:          opts.Pad,
		Title:        opts.Title,
	}
}

// wrapValidation maps domain sentinel errors onto structured codes.
func wrapValidation(err error) error {
	switch {
	case goerrors.Is(err, diagram.ErrUnknownNode):
		return flowerrors.Wrap(flowerrors.ErrCodeUnknownNode, err, "diagram references an unknown node")
	case goerrors.Is(err, diagram.ErrSelfLoop):
		return flowerrors.Wrap(flowerrors.ErrCodeSelfLoop, err, "diagram contains a self loop")
	case goerrors.Is(err, diagram.ErrInvalidFace):
		return flowerrors.Wrap(flowerrors.ErrCodeInvalidFace, err, "edge declares an invalid face")
	default:
		return flowerrors.Wrap(flowerrors.ErrCodeInvalidDiagram, err, "invalid diagram")
	}
}
