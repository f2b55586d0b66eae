package layout

import (
	"math"
	"slices"

	"github.com/beepf/topoconsole/pkg/graph"
)

// computeRadial places the highest-degree node at the center and every other
// node on a ring whose index is its BFS distance from it. Nodes that cannot
// be reached go on one extra outer ring.
func computeRadial(g graph.Graph, cfg Config, opts Options) Positions {
	idx := graph.NewIndex(g)
	unit := cfg.UnitRadius
	if unit <= 0 {
		unit = 100
	}

	focus := 0
	for i, n := range g.Nodes {
		if idx.Degree(n.ID) > idx.Degree(g.Nodes[focus].ID) {
			focus = i
		}
	}

	depth := bfsDepths(g, idx, g.Nodes[focus].ID)
	maxDepth := 0
	for _, d := range depth {
		maxDepth = max(maxDepth, d)
	}

	rings := make([][]int, maxDepth+2)
	for i, n := range g.Nodes {
		d, ok := depth[n.ID]
		if !ok {
			d = maxDepth + 1
		}
		rings[d] = append(rings[d], i)
	}

	center := Point{X: opts.Width / 2, Y: opts.Height / 2}
	pos := make(Positions, len(g.Nodes))
	pos[g.Nodes[focus].ID] = center

	angle := map[string]float64{g.Nodes[focus].ID: 0}
	prevRadius := 0.0
	for d := 1; d < len(rings); d++ {
		ring := rings[d]
		if len(ring) == 0 {
			continue
		}

		// Keep children near their parent by sorting on the parent's angle.
		key := make(map[int]float64, len(ring))
		for _, i := range ring {
			key[i] = parentAngle(g, idx, g.Nodes[i].ID, angle)
		}
		slices.SortStableFunc(ring, func(a, b int) int {
			switch {
			case key[a] < key[b]:
				return -1
			case key[a] > key[b]:
				return 1
			}
			return 0
		})

		radius := max(unit*float64(d), prevRadius+unit)
		if cfg.PreventOverlap {
			arc := 0.0
			for _, i := range ring {
				w, h := Box(g.Nodes[i])
				arc = max(arc, math.Hypot(w, h))
			}
			radius = max(radius, arc*float64(len(ring))/(2*math.Pi))
		}
		prevRadius = radius

		step := 2 * math.Pi / float64(len(ring))
		for k, i := range ring {
			a := float64(k) * step
			id := g.Nodes[i].ID
			angle[id] = a
			pos[id] = Point{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
		}
	}
	return pos
}

func bfsDepths(g graph.Graph, idx *graph.Index, root string) map[string]int {
	depth := map[string]int{root: 0}
	queue := []string{root}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, ei := range idx.Incident(curr) {
			next := graph.Other(g.Edges[ei], curr)
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[curr] + 1
			queue = append(queue, next)
		}
	}
	return depth
}

// parentAngle returns the smallest angle among already placed neighbors of
// id, or +Inf when none is placed.
func parentAngle(g graph.Graph, idx *graph.Index, id string, angle map[string]float64) float64 {
	best := math.Inf(1)
	for _, ei := range idx.Incident(id) {
		if a, ok := angle[graph.Other(g.Edges[ei], id)]; ok {
			best = min(best, a)
		}
	}
	return best
}
