package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// =============================================================================
// Queries
// =============================================================================

// NodeCount returns the number of nodes.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g Graph) EdgeCount() int { return len(g.Edges) }

// Index is a lookup structure over a Graph.
// Dangling edges (an endpoint not among the nodes) are excluded from
// Incident and Degree and listed in Dangling instead.
type Index struct {
	byID     map[string]int
	incident map[string][]int
	Dangling []Edge
}

// NewIndex builds an Index for g.
func NewIndex(g Graph) *Index {
	idx := &Index{
		byID:     make(map[string]int, len(g.Nodes)),
		incident: make(map[string][]int, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		idx.byID[n.ID] = i
	}
	for i, e := range g.Edges {
		_, okSrc := idx.byID[e.Source]
		_, okDst := idx.byID[e.Target]
		if !okSrc || !okDst {
			idx.Dangling = append(idx.Dangling, e)
			continue
		}
		idx.incident[e.Source] = append(idx.incident[e.Source], i)
		if e.Target != e.Source {
			idx.incident[e.Target] = append(idx.incident[e.Target], i)
		}
	}
	return idx
}

// Lookup returns the position of node id in Graph.Nodes.
func (idx *Index) Lookup(id string) (int, bool) {
	i, ok := idx.byID[id]
	return i, ok
}

// Incident returns the positions in Graph.Edges of the edges touching id.
func (idx *Index) Incident(id string) []int { return idx.incident[id] }

// Degree returns the number of drawable edges touching id.
func (idx *Index) Degree(id string) int { return len(idx.incident[id]) }

// IsDrawable reports whether both endpoints of e exist.
func (idx *Index) IsDrawable(e Edge) bool {
	_, okSrc := idx.byID[e.Source]
	_, okDst := idx.byID[e.Target]
	return okSrc && okDst
}

// Other returns the endpoint of e opposite to id.
func Other(e Edge, id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// =============================================================================
// Serialization API
// =============================================================================

// MarshalGraph encodes g as indented JSON.
func MarshalGraph(g Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// WriteGraph writes g as JSON to w.
func WriteGraph(g Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// UnmarshalGraph decodes JSON bytes into a Graph. Node IDs must be
// synthesized IDs ("prog-1", "map-1") and agree with the node kind.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("unmarshal graph: %w", err)
	}
	for _, n := range g.Nodes {
		key, err := ParseNodeKey(n.ID)
		if err != nil {
			return Graph{}, fmt.Errorf("unmarshal graph: %w", err)
		}
		if key.Kind != n.Kind {
			return Graph{}, fmt.Errorf("unmarshal graph: node %q has kind %q", n.ID, n.Kind)
		}
	}
	return g, nil
}
