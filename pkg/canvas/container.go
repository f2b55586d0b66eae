package canvas

import "sync"

// Container hosts a Surface and reports its pixel size.
type Container interface {
	// Size returns the current width and height. Zero means unknown.
	Size() (width, height float64)
	// OnResize registers fn to be called after every size change and
	// returns a function that removes it.
	OnResize(fn func()) (unsubscribe func())
}

// Window is an in-memory Container whose size is set by its owner, such as
// a browser viewport relayed over a websocket or a terminal.
type Window struct {
	mu     sync.Mutex
	width  float64
	height float64
	next   int
	subs   map[int]func()
}

// NewWindow returns a Window of the given size.
func NewWindow(width, height float64) *Window {
	return &Window{width: width, height: height, subs: make(map[int]func())}
}

// Size implements Container.
func (w *Window) Size() (float64, float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// OnResize implements Container.
func (w *Window) OnResize(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	w.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.subs, id)
		})
	}
}

// Resize sets a new size and notifies subscribers. Callbacks run on the
// caller's goroutine without the Window lock held.
func (w *Window) Resize(width, height float64) {
	w.mu.Lock()
	w.width, w.height = width, height
	fns := make([]func(), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribers returns the number of registered resize callbacks.
func (w *Window) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}
