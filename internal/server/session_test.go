package server

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/pipeline"
	"github.com/beepf/topoconsole/pkg/topology"
)

// fakeConn feeds scripted client messages and records server messages.
type fakeConn struct {
	in     chan clientMessage
	out    chan any
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan clientMessage),
		out:    make(chan any, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadJSON(v any) error {
	select {
	case m := <-c.in:
		*(v.(*clientMessage)) = m
		return nil
	case <-c.closed:
		return io.EOF
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.out <- v
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) send(t *testing.T, m clientMessage) {
	t.Helper()
	select {
	case c.in <- m:
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not read %q", m.Type)
	}
}

func (c *fakeConn) next(t *testing.T) any {
	t.Helper()
	select {
	case v := <-c.out:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no message from session")
		return nil
	}
}

func (c *fakeConn) frame(t *testing.T) frameMessage {
	t.Helper()
	v := c.next(t)
	f, ok := v.(frameMessage)
	if !ok {
		t.Fatalf("got %#v, want a frame", v)
	}
	return f
}

func (c *fakeConn) notice(t *testing.T) noticeMessage {
	t.Helper()
	v := c.next(t)
	n, ok := v.(noticeMessage)
	if !ok {
		t.Fatalf("got %#v, want a notice", v)
	}
	return n
}

func (c *fakeConn) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case v := <-c.out:
		t.Fatalf("unexpected message %#v", v)
	case <-time.After(d):
	}
}

func sampleTopology() topology.Topology {
	t := topology.New()
	t.AddProg(1, "xdp_filter")
	t.AddProg(2, "tc_egress")
	t.AddMap(10, "conn_track")
	t.AddEdge(1, 10)
	t.AddEdge(2, 10)
	return t
}

// switchSource serves a topology or an error, switchable between calls.
type switchSource struct {
	mu    sync.Mutex
	topo  topology.Topology
	err   error
	calls int
}

func (s *switchSource) Name() string { return "switch" }

func (s *switchSource) GetTopology(context.Context) (topology.Topology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.topo, s.err
}

func (s *switchSource) set(t topology.Topology, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topo, s.err = t, err
}

func (s *switchSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// blockingSource holds every fetch until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSource) Name() string { return "blocking" }

func (s *blockingSource) GetTopology(ctx context.Context) (topology.Topology, error) {
	close(s.started)
	<-s.release
	return sampleTopology(), nil
}

// gatedSource holds the first fetch made after arm until release is closed.
type gatedSource struct {
	mu      sync.Mutex
	armed   bool
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) Name() string { return "gated" }

func (s *gatedSource) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
}

func (s *gatedSource) GetTopology(ctx context.Context) (topology.Topology, error) {
	s.mu.Lock()
	hold := s.armed
	s.armed = false
	s.mu.Unlock()
	if hold {
		close(s.started)
		select {
		case <-s.release:
		case <-ctx.Done():
			return topology.Topology{}, ctx.Err()
		}
	}
	return sampleTopology(), nil
}

func startSession(t *testing.T, cfg Config, src pipeline.Source) (*session, *fakeConn, chan struct{}) {
	t.Helper()
	srv := New(cfg, pipeline.NewRunner(nil, nil, nil), src)
	c := newFakeConn()
	sess := srv.newSession(context.Background(), c)
	done := make(chan struct{})
	go func() {
		sess.run()
		close(done)
	}()
	t.Cleanup(func() {
		c.Close()
		<-done
	})
	return sess, c, done
}

func TestSessionMount(t *testing.T) {
	_, c, _ := startSession(t, Config{Mode: layout.ModeGrid}, pipeline.StaticSource{Topology: sampleTopology()})

	if f := c.frame(t); !f.Loading || !strings.Contains(f.SVG, "Loading") {
		t.Errorf("first frame should be a loading frame: %+v", f)
	}
	f := c.frame(t)
	if f.Loading || f.Nodes != 3 || f.Edges != 2 {
		t.Fatalf("loaded frame = loading:%v nodes:%d edges:%d", f.Loading, f.Nodes, f.Edges)
	}
	if f.Mode != string(layout.ModeGrid) {
		t.Errorf("Mode = %q, want grid", f.Mode)
	}
	if !strings.Contains(f.SVG, `data-id="prog-1"`) {
		t.Error("frame should draw prog-1")
	}
}

func TestSessionEvents(t *testing.T) {
	_, c, _ := startSession(t, Config{}, pipeline.StaticSource{Topology: sampleTopology()})
	c.frame(t)
	loaded := c.frame(t)

	c.send(t, clientMessage{Type: msgLayout, Mode: "radial"})
	f := c.frame(t)
	if f.Mode != string(layout.ModeRadial) {
		t.Errorf("Mode = %q, want radial", f.Mode)
	}
	if f.InstanceID != loaded.InstanceID {
		t.Error("layout switch should keep the instance")
	}

	c.send(t, clientMessage{Type: msgNodeClick, ID: "prog-1"})
	if f := c.frame(t); !strings.Contains(f.SVG, "node-program selected") {
		t.Error("clicked program should be selected")
	}

	c.send(t, clientMessage{Type: msgCanvasClick})
	if f := c.frame(t); strings.Contains(f.SVG, "node-program selected") {
		t.Error("canvas click should clear the selection")
	}

	c.send(t, clientMessage{Type: msgNodeEnter, ID: "map-10"})
	if f := c.frame(t); !strings.Contains(f.SVG, "node-map hover") {
		t.Error("entered map should be hovered")
	}

	c.send(t, clientMessage{Type: msgNodeLeave, ID: "map-10"})
	if f := c.frame(t); strings.Contains(f.SVG, "node-map hover") {
		t.Error("left map should not be hovered")
	}

	// Events on unknown or malformed node IDs change nothing and send nothing.
	c.send(t, clientMessage{Type: msgNodeEnter, ID: "prog-99"})
	c.send(t, clientMessage{Type: msgNodeClick, ID: "edge-1-10"})
	c.send(t, clientMessage{Type: msgDrag, ID: "", DX: 5, DY: 5})
	c.send(t, clientMessage{Type: msgResize, Width: 1024, Height: 768})
	if f := c.frame(t); !strings.Contains(f.SVG, `viewBox="0 0 1024 768"`) {
		t.Error("resize should resize the frame")
	}

	c.send(t, clientMessage{Type: msgLayout, Mode: "spiral"})
	if n := c.notice(t); n.Code != string(errors.ErrCodeInvalidLayout) {
		t.Errorf("notice code = %q", n.Code)
	}

	c.send(t, clientMessage{Type: "bogus"})
	c.send(t, clientMessage{Type: msgFit})
	c.frame(t)
}

func TestSessionFetchFailureKeepsFrame(t *testing.T) {
	src := &switchSource{topo: sampleTopology()}
	_, c, _ := startSession(t, Config{}, src)
	c.frame(t)
	if f := c.frame(t); f.Nodes != 3 {
		t.Fatalf("nodes = %d", f.Nodes)
	}

	src.set(topology.Topology{}, &errors.BackendError{Status: 502, Message: "agent unreachable"})
	c.send(t, clientMessage{Type: msgRefresh})

	if f := c.frame(t); !f.Loading {
		t.Error("refresh should show a loading frame")
	}
	n := c.notice(t)
	if n.Code != string(errors.ErrCodeBackend) || !strings.Contains(n.Message, "agent unreachable") {
		t.Errorf("notice = %+v", n)
	}
	if f := c.frame(t); f.Loading || f.Nodes != 3 {
		t.Errorf("prior frame should be kept: loading:%v nodes:%d", f.Loading, f.Nodes)
	}

	// One notice per failure: the next message answers the next event.
	c.send(t, clientMessage{Type: msgFit})
	c.frame(t)
	if src.count() != 2 {
		t.Errorf("fetches = %d, want 2", src.count())
	}
}

func TestSessionFirstFetchFails(t *testing.T) {
	src := &switchSource{err: errors.New(errors.ErrCodeNetwork, "connection refused")}
	_, c, _ := startSession(t, Config{}, src)

	c.frame(t)
	if n := c.notice(t); n.Code != string(errors.ErrCodeNetwork) {
		t.Errorf("notice code = %q", n.Code)
	}
	f := c.frame(t)
	if f.Loading || f.Nodes != 0 || !strings.Contains(f.SVG, "No topology data") {
		t.Errorf("empty frame expected: %+v", f)
	}
}

func TestSessionDiscardsFetchAfterClose(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	sess, c, done := startSession(t, Config{}, src)

	c.frame(t) // loading
	<-src.started
	c.Close()
	<-done

	close(src.release)
	c.quiet(t, 100*time.Millisecond)
	if st := sess.surface.State(); st == canvas.StateReady {
		t.Errorf("surface state = %v after unmount", st)
	}
}

func TestSessionTimedRefresh(t *testing.T) {
	src := &switchSource{topo: sampleTopology()}
	_, c, _ := startSession(t, Config{RefreshInterval: 10 * time.Millisecond}, src)
	c.frame(t)
	c.frame(t)

	deadline := time.Now().Add(2 * time.Second)
	for src.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if src.count() < 3 {
		t.Fatalf("fetches = %d, want timed refreshes", src.count())
	}
	// Unchanged topology: no frames were pushed.
	c.quiet(t, 20*time.Millisecond)

	grown := sampleTopology()
	grown.AddProg(3, "kprobe_open")
	grown.AddEdge(3, 10)
	src.set(grown, nil)

	f := c.frame(t)
	if f.Loading || f.Nodes != 4 {
		t.Errorf("refreshed frame: loading:%v nodes:%d", f.Loading, f.Nodes)
	}
}

func TestSessionTimedRefreshOvertakesManualRefresh(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	defer close(src.release)
	_, c, _ := startSession(t, Config{RefreshInterval: 50 * time.Millisecond}, src)
	c.frame(t)
	if f := c.frame(t); f.Nodes != 3 {
		t.Fatalf("nodes = %d", f.Nodes)
	}

	// The manual refresh hangs; a timed refresh with the same topology
	// completes first and must still replace the loading frame.
	src.arm()
	c.send(t, clientMessage{Type: msgRefresh})
	if f := c.frame(t); !f.Loading {
		t.Fatal("refresh should show a loading frame")
	}
	select {
	case <-src.started:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh fetch did not start")
	}

	f := c.frame(t)
	if f.Loading || f.Nodes != 3 {
		t.Errorf("frame after timed refresh: loading:%v nodes:%d", f.Loading, f.Nodes)
	}

	c.send(t, clientMessage{Type: msgFit})
	if f := c.frame(t); f.Loading {
		t.Error("surface should not be loading after the timed refresh")
	}
}
