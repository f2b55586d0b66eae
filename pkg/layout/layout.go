package layout

import (
	"math"

	"github.com/beepf/topoconsole/pkg/graph"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultWidth and DefaultHeight are used when the container reports no size.
	DefaultWidth  = 800.0
	DefaultHeight = 500.0

	// DefaultSeed seeds the force engine's RNG.
	DefaultSeed uint64 = 42

	// Program node box.
	ProgramWidth  = 120.0
	ProgramHeight = 40.0
)

// =============================================================================
// Compute API
// =============================================================================

// Options control a single Compute call.
type Options struct {
	Width  float64 // container width; 0 = DefaultWidth
	Height float64 // container height; 0 = DefaultHeight
	Seed   uint64  // force engine seed; 0 = DefaultSeed
}

// Positions maps node IDs to the center of the node in layout space.
type Positions map[string]Point

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 && r.Height() <= 0 }

// Box returns the drawn width and height of n.
//
// Program nodes are fixed 120x40 boxes; map boxes scale with the node size
// so that an unreferenced map matches a program.
func Box(n graph.Node) (w, h float64) {
	if n.Kind == graph.KindMap {
		size := n.Size
		if size <= 0 {
			size = graph.MinMapSize
		}
		return size * 3, size
	}
	return ProgramWidth, ProgramHeight
}

// Bounds returns the bounding box of all node boxes of g placed at pos.
// Nodes without a position are ignored.
func Bounds(g graph.Graph, pos Positions) Rect {
	r := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	seen := false
	for _, n := range g.Nodes {
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		seen = true
		w, h := Box(n)
		r.MinX = min(r.MinX, p.X-w/2)
		r.MinY = min(r.MinY, p.Y-h/2)
		r.MaxX = max(r.MaxX, p.X+w/2)
		r.MaxY = max(r.MaxY, p.Y+h/2)
	}
	if !seen {
		return Rect{}
	}
	return r
}

// Compute places every node of g according to cfg.
//
// The result has exactly one entry per node. Edges with missing endpoints
// are ignored by every engine. Compute is deterministic for a given graph,
// config and seed.
func Compute(g graph.Graph, cfg Config, opts Options) Positions {
	opts = opts.withDefaults()
	if len(g.Nodes) == 0 {
		return Positions{}
	}

	switch cfg.Engine {
	case EngineForce:
		return computeForce(g, cfg, opts)
	case EngineRadial:
		return computeRadial(g, cfg, opts)
	case EngineGrid:
		return computeGrid(g, cfg, opts)
	case EngineLayered:
		return computeLayered(g, cfg, opts)
	default:
		// Zero Config or hand-built without an engine: use the mode's preset.
		return Compute(g, ConfigFor(cfg.Mode), opts)
	}
}

// ComputeMode is shorthand for Compute(g, ConfigFor(mode), opts).
func ComputeMode(g graph.Graph, mode Mode, opts Options) Positions {
	return Compute(g, ConfigFor(mode), opts)
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	return o
}

// translate shifts every position so that the bounding box of g is centered
// on c.
func translate(g graph.Graph, pos Positions, c Point) {
	b := Bounds(g, pos)
	dx := c.X - (b.MinX+b.MaxX)/2
	dy := c.Y - (b.MinY+b.MaxY)/2
	for id, p := range pos {
		pos[id] = Point{X: p.X + dx, Y: p.Y + dy}
	}
}
