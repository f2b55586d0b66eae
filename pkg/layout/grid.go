package layout

import (
	"math"
	"slices"

	"github.com/beepf/topoconsole/pkg/graph"
)

// gridPadding is the minimum gap between node boxes in neighboring cells.
const gridPadding = 10.0

// computeGrid places nodes row by row in a near-square grid whose column
// count follows the container aspect ratio.
func computeGrid(g graph.Graph, cfg Config, opts Options) Positions {
	order := make([]int, len(g.Nodes))
	for i := range order {
		order[i] = i
	}
	if cfg.SortBy == "kind" {
		slices.SortStableFunc(order, func(a, b int) int {
			return kindRank(g.Nodes[a].Kind) - kindRank(g.Nodes[b].Kind)
		})
	}

	n := len(order)
	cols := int(math.Round(math.Sqrt(float64(n) * opts.Width / opts.Height)))
	cols = max(1, min(n, cols))
	rows := (n + cols - 1) / cols

	cellW := max(cfg.NodeSize, opts.Width/float64(cols))
	cellH := max(cfg.NodeSize, opts.Height/float64(rows))
	if cfg.PreventOverlap {
		for _, node := range g.Nodes {
			w, h := Box(node)
			cellW = max(cellW, w+gridPadding)
			cellH = max(cellH, h+gridPadding)
		}
	}

	pos := make(Positions, n)
	for k, i := range order {
		r, c := k/cols, k%cols
		pos[g.Nodes[i].ID] = Point{
			X: (float64(c) + 0.5) * cellW,
			Y: (float64(r) + 0.5) * cellH,
		}
	}
	return pos
}

func kindRank(k graph.Kind) int {
	if k == graph.KindProgram {
		return 0
	}
	return 1
}
