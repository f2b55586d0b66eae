package shapes

import (
	"bytes"
	"slices"
	"sync"

	"github.com/beepf/topoconsole/pkg/graph"
)

// DrawFunc writes the SVG for one node, centered on (n.X, n.Y).
type DrawFunc func(buf *bytes.Buffer, n Node)

// Registry maps node kinds to their draw functions.
//
// Registration is idempotent: the first function registered for a kind
// wins and later calls for the same kind are ignored. A Registry is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	kinds map[graph.Kind]DrawFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[graph.Kind]DrawFunc)}
}

// Register associates draw with kind. It reports whether the kind was newly
// registered.
func (r *Registry) Register(kind graph.Kind, draw DrawFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kinds[kind]; ok {
		return false
	}
	r.kinds[kind] = draw
	return true
}

// Lookup returns the draw function for kind.
func (r *Registry) Lookup(kind graph.Kind) (DrawFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.kinds[kind]
	return fn, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []graph.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]graph.Kind, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Draw renders n with its registered function, or as a plain box when its
// kind is unknown.
func (r *Registry) Draw(buf *bytes.Buffer, n Node) {
	if fn, ok := r.Lookup(n.Kind); ok {
		fn(buf, n)
		return
	}
	DrawPlain(buf, n)
}

// RegisterDefaults registers the program and map kinds on r.
func RegisterDefaults(r *Registry) {
	r.Register(graph.KindProgram, DrawProgram)
	r.Register(graph.KindMap, DrawMap)
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry holding the built-in kinds.
// It is built once on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		RegisterDefaults(defaultRegistry)
	})
	return defaultRegistry
}
