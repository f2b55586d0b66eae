package sink

import (
	"encoding/json"

	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/render/shapes"
)

// RenderJSON encodes f with two-space indentation.
func RenderJSON(f canvas.Frame) ([]byte, error) {
	if f.Nodes == nil {
		f.Nodes = []shapes.Node{}
	}
	if f.Edges == nil {
		f.Edges = []shapes.Edge{}
	}
	return json.MarshalIndent(f, "", "  ")
}
