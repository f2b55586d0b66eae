package graph

import (
	"strconv"

	"github.com/beepf/topoconsole/pkg/topology"
)

// =============================================================================
// Topology → Graph
// =============================================================================

// Transform converts a topology into a render graph.
//
// Nodes are emitted programs first, then maps, each in input order. Edges
// keep input order. Reference counts are computed in a single pass over the
// edges. Edges whose endpoints are not declared are emitted unchanged;
// consumers decide whether to draw them.
//
// Transform never fails: empty or missing sequences produce an empty part.
func Transform(t topology.Topology) Graph {
	refs := make(map[string]int, len(t.MapNodes))
	for _, e := range t.Edges {
		refs[MapKey(e.MapID).String()]++
	}

	g := Graph{
		Nodes: make([]Node, 0, len(t.ProgNodes)+len(t.MapNodes)),
		Edges: make([]Edge, 0, len(t.Edges)),
	}

	for _, p := range t.ProgNodes {
		g.Nodes = append(g.Nodes, Node{
			ID:    ProgKey(p.ID).String(),
			Label: labelOr(p.Name, "Program", p.ID),
			Kind:  KindProgram,
			Style: Style{Fill: ProgramFill, Stroke: ProgramStroke},
		})
	}

	for _, m := range t.MapNodes {
		id := MapKey(m.ID).String()
		n := refs[id]
		g.Nodes = append(g.Nodes, Node{
			ID:       id,
			Label:    labelOr(m.Name, "Map", m.ID),
			Kind:     KindMap,
			Style:    Style{Fill: MapFill, Stroke: MapStroke},
			RefCount: n,
			Size:     MapSize(n),
		})
	}

	for _, e := range t.Edges {
		g.Edges = append(g.Edges, Edge{
			ID:       EdgeID(e.ProgID, e.MapID),
			Source:   ProgKey(e.ProgID).String(),
			Target:   MapKey(e.MapID).String(),
			EndArrow: true,
		})
	}

	return g
}

func labelOr(name, kind string, id uint32) string {
	if name != "" {
		return name
	}
	return kind + " " + strconv.FormatUint(uint64(id), 10)
}
