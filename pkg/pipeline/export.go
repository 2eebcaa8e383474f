package pipeline

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/flowline/pkg/diagram"
	"github.com/matzehuels/flowline/pkg/render"
	"github.com/matzehuels/flowline/pkg/route"
)

// layoutExport is the json artifact: the resolved geometry without any
// drawing, for downstream tooling and for inspecting routing decisions.
type layoutExport struct {
	Title string                   `json:"title,omitempty"`
	Frame frameExport              `json:"frame"`
	Boxes map[string]diagram.Box   `json:"boxes"`
	Edges []decisionExport         `json:"edges"`
}

type frameExport struct {
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	PxPerUnit float64 `json:"px_per_unit"`
}

type decisionExport struct {
	Src   string        `json:"src"`
	Dst   string        `json:"dst"`
	Exit  string        `json:"exit"`
	Entry string        `json:"entry"`
	Style string        `json:"style"`
	From  diagram.Point `json:"from"`
	To    diagram.Point `json:"to"`
	Curve float64       `json:"curve,omitempty"`
}

func marshalLayout(d *diagram.Diagram, boxes []diagram.Box, decisions []route.Decision, frame render.Frame) ([]byte, error) {
	out := layoutExport{
		Title: d.Title,
		Frame: frameExport{X0: frame.X0, Y0: frame.Y0, X1: frame.X1, Y1: frame.Y1, PxPerUnit: frame.PxPerUnit},
		Boxes: make(map[string]diagram.Box, len(boxes)),
		Edges: make([]decisionExport, 0, len(decisions)),
	}
	for i, n := range d.Nodes {
		out.Boxes[n.ID] = boxes[i]
	}
	for _, dec := range decisions {
		out.Edges = append(out.Edges, decisionExport{
			Src:   d.Nodes[dec.Src].ID,
			Dst:   d.Nodes[dec.Dst].ID,
			Exit:  string(dec.Exit),
			Entry: string(dec.Entry),
			Style: dec.Style.String(),
			From:  dec.From,
			To:    dec.To,
			Curve: dec.Curve,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
