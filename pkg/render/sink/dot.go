package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowline/pkg/diagram"
	"github.com/matzehuels/flowline/pkg/render/styles"
)

// ToDOT converts a diagram to Graphviz DOT format for a quick structural
// preview. Graphviz does its own placement and routing, so the output
// ignores node coordinates, face overrides, and spacing; use it to check
// connectivity, not layout.
func ToDOT(d *diagram.Diagram) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=%q, fontname=\"Helvetica\"];\n", styles.ColorBackground)
	buf.WriteString("\n")

	for _, n := range d.Nodes {
		attrs := fmt.Sprintf("label=%q", n.Label)
		if n.Fill != "" {
			attrs += fmt.Sprintf(", fillcolor=%q", n.Fill)
		}
		if n.TextColor != "" {
			attrs += fmt.Sprintf(", fontcolor=%q", n.TextColor)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, attrs)
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		if e.Dashed {
			attrs = append(attrs, `style="dashed"`)
		}
		suffix := ""
		if len(attrs) > 0 {
			suffix = " [" + strings.Join(attrs, ", ") + "]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Src, e.Dst, suffix)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOTSVG renders a DOT string to SVG using Graphviz.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
