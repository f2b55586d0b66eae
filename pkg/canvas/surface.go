package canvas

import (
	"io"
	"math"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/render/shapes"
	"github.com/beepf/topoconsole/pkg/topology"
)

// =============================================================================
// Lifecycle States and Behaviors
// =============================================================================

// State is the lifecycle state of a Surface.
type State int

// Surface states.
const (
	StateUninitialized State = iota
	StateReady
	StateDestroyed
)

// String returns the lowercase name of s.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// Behavior names an interaction mode bound at initialization.
type Behavior string

// Interaction behaviors.
const (
	BehaviorDragCanvas  Behavior = "drag-canvas"
	BehaviorZoomCanvas  Behavior = "zoom-canvas"
	BehaviorDragNode    Behavior = "drag-node"
	BehaviorClickSelect Behavior = "click-select"
)

// DefaultBehaviors are bound when no WithBehaviors option is given.
var DefaultBehaviors = []Behavior{BehaviorDragCanvas, BehaviorZoomCanvas, BehaviorDragNode, BehaviorClickSelect}

// Viewport limits.
const (
	MinZoom    = 0.2
	MaxZoom    = 5.0
	FitPadding = 20.0
)

// =============================================================================
// Surface
// =============================================================================

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option { return func(s *Surface) { s.logger = l } }

// WithRegistry sets the node kind registry. The default is [shapes.Default].
func WithRegistry(r *shapes.Registry) Option { return func(s *Surface) { s.registry = r } }

// WithBehaviors replaces the default interaction behaviors.
func WithBehaviors(b ...Behavior) Option {
	return func(s *Surface) { s.behaviors = slices.Clone(b) }
}

// WithMode sets the initial layout mode. The default is [layout.DefaultMode].
func WithMode(m layout.Mode) Option { return func(s *Surface) { s.mode = layout.ConfigFor(m).Mode } }

// WithSeed sets the seed passed to force layouts.
func WithSeed(seed uint64) Option { return func(s *Surface) { s.seed = seed } }

// LayoutFunc computes node positions for a graph. [layout.ComputeMode] is
// the default; callers substitute a caching version.
type LayoutFunc func(g graph.Graph, mode layout.Mode, opts layout.Options) layout.Positions

// WithLayoutFunc replaces the position computation.
func WithLayoutFunc(fn LayoutFunc) Option { return func(s *Surface) { s.layoutFn = fn } }

// Surface is the drawing surface of one mounted topology view.
//
// A Surface starts uninitialized, becomes ready on the first non-loading
// Load and is destroyed by Destroy. Every later Load tears the current
// instance down and builds a fresh one with a new instance ID.
//
// All methods are safe for concurrent use; they serialize on an internal
// mutex. Interaction methods are ignored unless the surface is ready.
type Surface struct {
	mu        sync.Mutex
	container Container
	logger    *log.Logger
	registry  *shapes.Registry
	behaviors []Behavior
	seed      uint64
	mode      layout.Mode
	layoutFn  LayoutFunc

	state       State
	id          string
	loading     bool
	unsubscribe func()
	bound       map[Behavior]bool

	g        graph.Graph
	idx      *graph.Index
	pos      layout.Positions
	width    float64
	height   float64
	view     Viewport
	hover    map[string]bool
	selected map[string]bool
}

// New returns an uninitialized Surface hosted in c.
func New(c Container, opts ...Option) *Surface {
	s := &Surface{
		container: c,
		behaviors: slices.Clone(DefaultBehaviors),
		mode:      layout.DefaultMode,
		seed:      layout.DefaultSeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.registry == nil {
		s.registry = shapes.Default()
	}
	if s.layoutFn == nil {
		s.layoutFn = layout.ComputeMode
	}
	return s
}

// ID returns the current instance ID, empty before the first build.
func (s *Surface) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// State returns the lifecycle state.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the active layout mode.
func (s *Surface) Mode() layout.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Registry returns the node kind registry used for drawing.
func (s *Surface) Registry() *shapes.Registry { return s.registry }

// Load shows t, rebuilding the surface from scratch.
//
// While loading is true only the loading flag is recorded; the current
// instance is left alone and Snapshot reports a loading frame.
func (s *Surface) Load(t topology.Topology, loading bool) {
	s.LoadGraph(graph.Transform(t), loading)
}

// LoadGraph is Load for an already transformed graph.
func (s *Surface) LoadGraph(g graph.Graph, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = loading
	if loading {
		s.logger.Debug("surface loading", "instance", s.id)
		return
	}
	if s.state == StateReady {
		s.teardown()
	}
	s.build(g)
}

// Destroy releases the surface and its resize subscription. It is a no-op
// unless the surface is ready.
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return
	}
	s.teardown()
}

func (s *Surface) build(g graph.Graph) {
	shapes.RegisterDefaults(s.registry)

	s.id = uuid.NewString()
	s.setSize(s.container.Size())

	s.bound = make(map[Behavior]bool, len(s.behaviors))
	for _, b := range s.behaviors {
		s.bound[b] = true
	}

	id := s.id
	s.unsubscribe = s.container.OnResize(func() { s.onResize(id) })

	s.g = g
	s.idx = graph.NewIndex(g)
	s.hover = make(map[string]bool)
	s.selected = make(map[string]bool)
	for _, e := range s.idx.Dangling {
		s.logger.Debug("edge not drawn: missing endpoint", "edge", e.ID, "source", e.Source, "target", e.Target)
	}

	s.relayout()
	s.fitView()
	s.state = StateReady

	s.logger.Debug("surface ready",
		"instance", s.id,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges)-len(s.idx.Dangling),
		"mode", s.mode,
		"size", [2]float64{s.width, s.height})
}

func (s *Surface) teardown() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.g = graph.Graph{}
	s.idx = nil
	s.pos = nil
	s.hover = nil
	s.selected = nil
	s.bound = nil
	s.state = StateDestroyed
	s.logger.Debug("surface destroyed", "instance", s.id)
}

// =============================================================================
// Layout and Viewport
// =============================================================================

// SetLayout switches the layout mode on the live instance and re-fits the
// view. Unknown modes select the hierarchical layout. When the surface is
// not ready the mode is recorded for the next build.
func (s *Surface) SetLayout(mode layout.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = layout.ConfigFor(mode).Mode
	if s.state != StateReady {
		return
	}
	s.relayout()
	s.fitView()
	s.logger.Debug("layout updated", "instance", s.id, "mode", s.mode)
}

// ChangeSize sets the surface's pixel size. Non-positive dimensions fall
// back to the default 800x500.
func (s *Surface) ChangeSize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSize(width, height)
}

// FitView zooms and centers the view so the whole graph is visible.
func (s *Surface) FitView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReady {
		s.fitView()
	}
}

func (s *Surface) onResize(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.id != id {
		return
	}
	s.setSize(s.container.Size())
	s.fitView()
	s.logger.Debug("surface resized", "instance", s.id, "width", s.width, "height", s.height)
}

func (s *Surface) setSize(w, h float64) {
	if w <= 0 {
		w = layout.DefaultWidth
	}
	if h <= 0 {
		h = layout.DefaultHeight
	}
	s.width, s.height = w, h
}

func (s *Surface) relayout() {
	s.pos = s.layoutFn(s.g, s.mode, layout.Options{
		Width:  s.width,
		Height: s.height,
		Seed:   s.seed,
	})
}

func (s *Surface) fitView() {
	b := layout.Bounds(s.g, s.pos)
	if b.Empty() {
		s.view = Viewport{X: s.width / 2, Y: s.height / 2, Zoom: 1}
		return
	}
	zx := (s.width - 2*FitPadding) / math.Max(b.Width(), 1)
	zy := (s.height - 2*FitPadding) / math.Max(b.Height(), 1)
	zoom := clampZoom(math.Min(zx, zy))
	cx, cy := (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2
	s.view = Viewport{
		X:    s.width/2 - cx*zoom,
		Y:    s.height/2 - cy*zoom,
		Zoom: zoom,
	}
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot returns the current drawable frame. It never fails: a surface
// that is loading, uninitialized or destroyed yields a frame without nodes.
func (s *Surface) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := layout.ConfigFor(s.mode)
	f := Frame{
		InstanceID: s.id,
		State:      s.state.String(),
		Mode:       s.mode,
		Loading:    s.loading,
		Width:      s.width,
		Height:     s.height,
		Viewport:   s.view,
		Nodes:      []shapes.Node{},
		Edges:      []shapes.Edge{},
		Layout:     &cfg,
	}
	if f.Width == 0 {
		f.Width, f.Height = s.container.Size()
		if f.Width <= 0 || f.Height <= 0 {
			f.Width, f.Height = layout.DefaultWidth, layout.DefaultHeight
		}
	}
	if s.loading || s.state != StateReady {
		return f
	}

	for _, b := range s.behaviors {
		if s.bound[b] {
			f.Behaviors = append(f.Behaviors, b)
		}
	}

	for _, n := range s.g.Nodes {
		f.Nodes = append(f.Nodes, s.drawable(n))
	}
	for _, e := range s.g.Edges {
		if !s.idx.IsDrawable(e) {
			f.HiddenEdges++
			continue
		}
		f.Edges = append(f.Edges, s.drawableEdge(e))
	}
	f.Empty = len(f.Nodes) == 0
	return f
}

func (s *Surface) drawable(n graph.Node) shapes.Node {
	w, h := layout.Box(n)
	p := s.pos[n.ID]
	return shapes.Node{
		ID:       n.ID,
		Label:    n.Label,
		Kind:     n.Kind,
		X:        p.X,
		Y:        p.Y,
		W:        w,
		H:        h,
		Fill:     n.Style.Fill,
		Stroke:   n.Style.Stroke,
		RefCount: n.RefCount,
		Hover:    s.hover[n.ID],
		Selected: s.selected[n.ID],
	}
}

func (s *Surface) drawableEdge(e graph.Edge) shapes.Edge {
	si, _ := s.idx.Lookup(e.Source)
	ti, _ := s.idx.Lookup(e.Target)
	src, dst := s.g.Nodes[si], s.g.Nodes[ti]
	sp, tp := s.pos[src.ID], s.pos[dst.ID]
	sw, sh := layout.Box(src)
	tw, th := layout.Box(dst)

	x1, y1 := shapes.Clip(sp.X, sp.Y, sw, sh, tp.X, tp.Y)
	x2, y2 := shapes.Clip(tp.X, tp.Y, tw, th, sp.X, sp.Y)
	return shapes.Edge{
		ID:       e.ID,
		Source:   e.Source,
		Target:   e.Target,
		X1:       x1,
		Y1:       y1,
		X2:       x2,
		Y2:       y2,
		Arrow:    e.EndArrow,
		Hover:    s.hover[e.ID],
		Selected: s.selected[e.ID],
	}
}
