// Package diagram defines the flow diagram data model: labeled node boxes
// placed at caller-supplied coordinates and directed edges between them.
//
// A [Diagram] is the input to the rendering pipeline. Node placement is
// entirely caller-controlled; the pipeline only sizes boxes, spaces tiers
// vertically, and routes edges. Edge order is significant: when several
// edges attach to the same face of a node, their anchor points are spread
// in input order.
package diagram

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Diagram.Validate] when a node has an
	// empty identifier. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Diagram.AddNode] when a node with
	// the same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned by [Diagram.Validate] when an edge
	// references a node ID that does not exist in the diagram.
	ErrUnknownNode = errors.New("edge references unknown node")

	// ErrSelfLoop is returned by [Diagram.Validate] when an edge has the
	// same source and destination. Self-loops are not routable.
	ErrSelfLoop = errors.New("edge must not be a self-loop")

	// ErrInvalidFace is returned by [Diagram.Validate] when an edge carries
	// an exit or entry override that is not one of the four face names.
	ErrInvalidFace = errors.New("invalid face override")
)

// Face identifies one of the four cardinal sides of a node box. Faces are
// the only valid attachment points for edges.
type Face string

const (
	FaceTop    Face = "top"
	FaceBottom Face = "bottom"
	FaceLeft   Face = "left"
	FaceRight  Face = "right"

	// FaceAuto means no override: the routing heuristic picks the face.
	FaceAuto Face = ""
)

// Valid reports whether f is one of the four cardinal faces.
func (f Face) Valid() bool {
	switch f {
	case FaceTop, FaceBottom, FaceLeft, FaceRight:
		return true
	}
	return false
}

// Horizontal reports whether f is a left or right face.
func (f Face) Horizontal() bool { return f == FaceLeft || f == FaceRight }

// Opposite returns the face on the other side of the box.
func (f Face) Opposite() Face {
	switch f {
	case FaceTop:
		return FaceBottom
	case FaceBottom:
		return FaceTop
	case FaceLeft:
		return FaceRight
	case FaceRight:
		return FaceLeft
	}
	return f
}

// Node is a labeled box centered on a caller-supplied coordinate.
// CX and CY are in abstract diagram units; the box extent around the
// center is computed by the measurer, not stored here.
type Node struct {
	ID        string  `json:"id" toml:"id"`
	Label     string  `json:"label" toml:"label"`
	CX        float64 `json:"cx" toml:"cx"`
	CY        float64 `json:"cy" toml:"cy"`
	Fill      string  `json:"fill,omitempty" toml:"fill"`
	TextColor string  `json:"text_color,omitempty" toml:"text_color"`
}

// Edge is a directed connection between two nodes. Exit and Entry, when
// set, override the routing heuristic for their end of the edge. Curve
// bows the connector instead of routing it straight or elbowed; positive
// values bow left of the direction of travel.
type Edge struct {
	Src    string  `json:"src" toml:"src"`
	Dst    string  `json:"dst" toml:"dst"`
	Label  string  `json:"label,omitempty" toml:"label"`
	Exit   Face    `json:"exit,omitempty" toml:"exit"`
	Entry  Face    `json:"entry,omitempty" toml:"entry"`
	Dashed bool    `json:"dashed,omitempty" toml:"dashed"`
	Curve  float64 `json:"curve,omitempty" toml:"curve"`
	Color  string  `json:"color,omitempty" toml:"color"`
}

// Diagram is an ordered set of edges over a collection of nodes.
// Nodes are keyed by ID; edge order is preserved from input.
type Diagram struct {
	Title string `json:"title,omitempty" toml:"title"`
	Nodes []Node `json:"nodes" toml:"nodes"`
	Edges []Edge `json:"edges" toml:"edges"`

	byID map[string]int
}

// New creates an empty diagram.
func New() *Diagram {
	return &Diagram{byID: make(map[string]int)}
}

// AddNode appends a node to the diagram.
// Returns ErrInvalidNodeID for empty IDs and ErrDuplicateNodeID when the
// ID is already taken.
func (d *Diagram) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	d.ensureIndex()
	if _, ok := d.byID[n.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
	}
	d.byID[n.ID] = len(d.Nodes)
	d.Nodes = append(d.Nodes, n)
	return nil
}

// AddEdge appends an edge. Endpoint existence is checked by [Diagram.Validate],
// not here, so edges may be added before their nodes.
func (d *Diagram) AddEdge(e Edge) {
	d.Edges = append(d.Edges, e)
}

// Node returns the node with the given ID.
func (d *Diagram) Node(id string) (Node, bool) {
	d.ensureIndex()
	i, ok := d.byID[id]
	if !ok {
		return Node{}, false
	}
	return d.Nodes[i], true
}

// NodeIndex returns the position of a node in the Nodes slice.
// Edges and routing decisions hold indices rather than node copies.
func (d *Diagram) NodeIndex(id string) (int, bool) {
	d.ensureIndex()
	i, ok := d.byID[id]
	return i, ok
}

// NodeCount returns the number of nodes.
func (d *Diagram) NodeCount() int { return len(d.Nodes) }

// EdgeCount returns the number of edges.
func (d *Diagram) EdgeCount() int { return len(d.Edges) }

// Validate checks the structural invariants of the diagram:
//
//   - all node IDs are non-empty and unique
//   - every edge references existing nodes
//   - no edge is a self-loop
//   - face overrides, when present, name one of the four cardinal faces
//
// The first violation found is returned, identifying the offending node
// or edge. A valid diagram may still produce a visually crowded layout;
// crowding is a spacing concern, not a validation error.
func (d *Diagram) Validate() error {
	seen := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return ErrInvalidNodeID
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for i, e := range d.Edges {
		if _, ok := seen[e.Src]; !ok {
			return fmt.Errorf("edge %d (%s -> %s): %w: %q", i, e.Src, e.Dst, ErrUnknownNode, e.Src)
		}
		if _, ok := seen[e.Dst]; !ok {
			return fmt.Errorf("edge %d (%s -> %s): %w: %q", i, e.Src, e.Dst, ErrUnknownNode, e.Dst)
		}
		if e.Src == e.Dst {
			return fmt.Errorf("edge %d: %w: %q", i, ErrSelfLoop, e.Src)
		}
		for _, f := range []Face{e.Exit, e.Entry} {
			if f != FaceAuto && !f.Valid() {
				return fmt.Errorf("edge %d (%s -> %s): %w: %q", i, e.Src, e.Dst, ErrInvalidFace, f)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the diagram. The rendering pipeline clones
// its input so that auto-spacing never mutates caller state.
func (d *Diagram) Clone() *Diagram {
	out := &Diagram{
		Title: d.Title,
		Nodes: slices.Clone(d.Nodes),
		Edges: slices.Clone(d.Edges),
	}
	return out
}

func (d *Diagram) ensureIndex() {
	if d.byID != nil && len(d.byID) == len(d.Nodes) {
		return
	}
	d.byID = make(map[string]int, len(d.Nodes))
	for i, n := range d.Nodes {
		d.byID[n.ID] = i
	}
}
