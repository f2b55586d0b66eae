package canvas

import (
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/render/shapes"
)

// Viewport maps world coordinates to screen pixels:
//
//	screen = world*Zoom + (X, Y)
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Apply converts a world point to screen coordinates.
func (v Viewport) Apply(p layout.Point) layout.Point {
	return layout.Point{X: p.X*v.Zoom + v.X, Y: p.Y*v.Zoom + v.Y}
}

// Invert converts a screen point to world coordinates.
func (v Viewport) Invert(p layout.Point) layout.Point {
	return layout.Point{X: (p.X - v.X) / v.Zoom, Y: (p.Y - v.Y) / v.Zoom}
}

// Frame is a drawable snapshot of a Surface.
//
// Node and edge coordinates are in world space; renderers apply Viewport.
// Edges whose endpoints are missing are counted in HiddenEdges and left out
// of Edges.
type Frame struct {
	InstanceID  string         `json:"instanceId,omitempty"`
	State       string         `json:"state"`
	Mode        layout.Mode    `json:"mode"`
	Loading     bool           `json:"loading"`
	Empty       bool           `json:"empty"`
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	Viewport    Viewport       `json:"viewport"`
	Behaviors   []Behavior     `json:"behaviors,omitempty"`
	Nodes       []shapes.Node  `json:"nodes"`
	Edges       []shapes.Edge  `json:"edges"`
	HiddenEdges int            `json:"hiddenEdges,omitempty"`
	Layout      *layout.Config `json:"layout,omitempty"`
}

// Node returns the frame node with the given ID.
func (f Frame) Node(id string) (shapes.Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return shapes.Node{}, false
}

// Edge returns the frame edge with the given ID.
func (f Frame) Edge(id string) (shapes.Edge, bool) {
	for _, e := range f.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return shapes.Edge{}, false
}

// Hovered returns the IDs of hovered nodes and edges in frame order.
func (f Frame) Hovered() []string {
	var ids []string
	for _, n := range f.Nodes {
		if n.Hover {
			ids = append(ids, n.ID)
		}
	}
	for _, e := range f.Edges {
		if e.Hover {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Selected returns the IDs of selected nodes and edges in frame order.
func (f Frame) Selected() []string {
	var ids []string
	for _, n := range f.Nodes {
		if n.Selected {
			ids = append(ids, n.ID)
		}
	}
	for _, e := range f.Edges {
		if e.Selected {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
