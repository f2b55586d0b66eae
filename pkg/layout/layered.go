package layout

import (
	"slices"

	"github.com/beepf/topoconsole/pkg/graph"
)

// orderingPasses is the number of barycenter sweeps (each sweep is one pass
// down and one pass up the ranks).
const orderingPasses = 4

// computeLayered is a Sugiyama-style layered layout: longest-path ranking,
// barycenter ordering with crossing counting, then placement along RankDir.
func computeLayered(g graph.Graph, cfg Config, opts Options) Positions {
	idx := graph.NewIndex(g)
	children := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if !idx.IsDrawable(e) || e.Source == e.Target {
			continue
		}
		children[e.Source] = append(children[e.Source], e.Target)
	}

	ranks := assignRanks(g, children)
	orders := initialOrders(g, ranks)
	orders = minimizeCrossings(orders, children)

	pos := placeRanks(g, cfg, orders)
	translate(g, pos, Point{X: opts.Width / 2, Y: opts.Height / 2})
	return pos
}

// =============================================================================
// Ranking
// =============================================================================

// assignRanks places each node one rank after the deepest of its parents
// (Kahn's algorithm). Nodes caught in a cycle stay at rank 0.
func assignRanks(g graph.Graph, children map[string][]string) map[string]int {
	inDegree := make(map[string]int, len(g.Nodes))
	for _, targets := range children {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	ranks := make(map[string]int, len(g.Nodes))
	queue := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range children[curr] {
			if r := ranks[curr] + 1; r > ranks[child] {
				ranks[child] = r
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return ranks
}

func initialOrders(g graph.Graph, ranks map[string]int) [][]string {
	depth := 0
	for _, r := range ranks {
		depth = max(depth, r)
	}
	orders := make([][]string, depth+1)
	for _, n := range g.Nodes {
		r := ranks[n.ID]
		orders[r] = append(orders[r], n.ID)
	}
	return orders
}

// =============================================================================
// Ordering
// =============================================================================

// minimizeCrossings runs alternating barycenter sweeps and keeps the ordering
// with the fewest crossings seen.
func minimizeCrossings(orders [][]string, children map[string][]string) [][]string {
	if len(orders) < 2 {
		return orders
	}

	parents := make(map[string][]string)
	for src, targets := range children {
		for _, t := range targets {
			parents[t] = append(parents[t], src)
		}
	}

	best := cloneOrders(orders)
	bestCrossings := countCrossings(orders, children)

	for pass := 0; pass < orderingPasses && bestCrossings > 0; pass++ {
		for r := 1; r < len(orders); r++ {
			orders[r] = barycenterSort(orders[r], orders[r-1], parents)
		}
		for r := len(orders) - 2; r >= 0; r-- {
			orders[r] = barycenterSort(orders[r], orders[r+1], children)
		}
		if c := countCrossings(orders, children); c < bestCrossings {
			best, bestCrossings = cloneOrders(orders), c
		}
	}
	return best
}

// barycenterSort orders row by the mean position of each node's neighbors in
// fixed. Nodes without neighbors in fixed keep their current position.
func barycenterSort(row, fixed []string, neighbors map[string][]string) []string {
	fixedPos := posMap(fixed)
	type keyed struct {
		id  string
		key float64
	}
	items := make([]keyed, len(row))
	for i, id := range row {
		sum, n := 0.0, 0
		for _, nb := range neighbors[id] {
			if p, ok := fixedPos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		key := float64(i)
		if n > 0 {
			key = sum / float64(n)
		}
		items[i] = keyed{id, key}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func countCrossings(orders [][]string, children map[string][]string) int {
	total := 0
	for r := 0; r+1 < len(orders); r++ {
		total += layerCrossings(orders[r], orders[r+1], children)
	}
	return total
}

// layerCrossings counts crossings between two adjacent ranks as inversions of
// target positions, using a Fenwick tree.
func layerCrossings(upper, lower []string, children map[string][]string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := posMap(lower)

	type edge struct{ upper, lower int }
	var edges []edge
	for i, id := range upper {
		for _, c := range children[id] {
			if p, ok := lowerPos[c]; ok {
				edges = append(edges, edge{i, p})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual
		total++
		for i := e.lower + 1; i < len(fenwick); i += i & (-i) {
			fenwick[i]++
		}
	}
	return crossings
}

func posMap(row []string) map[string]int {
	m := make(map[string]int, len(row))
	for i, id := range row {
		m[id] = i
	}
	return m
}

func cloneOrders(orders [][]string) [][]string {
	out := make([][]string, len(orders))
	for i, row := range orders {
		out[i] = slices.Clone(row)
	}
	return out
}

// =============================================================================
// Placement
// =============================================================================

// placeRanks lays ranks out along the rank axis (x for LR, y for TB) and
// stacks the nodes of each rank along the cross axis, centered on 0.
func placeRanks(g graph.Graph, cfg Config, orders [][]string) Positions {
	nodes := make(map[string]graph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}
	tb := cfg.RankDir == RankDirTB

	// extent returns (along rank axis, across rank axis) for a node box.
	extent := func(n graph.Node) (float64, float64) {
		w, h := Box(n)
		if tb {
			return h, w
		}
		return w, h
	}

	pos := make(Positions, len(g.Nodes))
	rankStart := 0.0
	for _, row := range orders {
		depth, span := 0.0, 0.0
		for i, id := range row {
			d, s := extent(nodes[id])
			depth = max(depth, d)
			span += s
			if i > 0 {
				span += cfg.NodeSep
			}
		}

		cursor := -span / 2
		for _, id := range row {
			_, s := extent(nodes[id])
			along := rankStart + depth/2
			across := cursor + s/2
			if tb {
				pos[id] = Point{X: across, Y: along}
			} else {
				pos[id] = Point{X: along, Y: across}
			}
			cursor += s + cfg.NodeSep
		}
		rankStart += depth + cfg.RankSep
	}
	return pos
}
