package server

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/observability"
	"github.com/beepf/topoconsole/pkg/pipeline"
	"github.com/beepf/topoconsole/pkg/render/sink"
)

// conn is the message transport of a session. *websocket.Conn implements it.
type conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.cfg.allowAll() || slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	sess := s.newSession(r.Context(), ws)
	s.sessions.add(sess)
	defer s.sessions.remove(sess)
	sess.run()
}

// =============================================================================
// Session
// =============================================================================

// session binds one console page to one Surface.
//
// The read loop, the fetch goroutines and the refresh timer all touch the
// surface; the surface serializes them. Writes to the connection are
// serialized by writeMu.
type session struct {
	id      string
	conn    conn
	writeMu sync.Mutex

	runner  *pipeline.Runner
	source  pipeline.Source
	logger  *log.Logger
	refresh time.Duration

	window  *canvas.Window
	surface *canvas.Surface

	ctx    context.Context
	cancel context.CancelFunc
	opened time.Time

	// mu guards the fields below and orders fetch results against close.
	mu       sync.Mutex
	closed   bool
	fetchSeq uint64
	pending  bool // a loading frame is showing
	last     graph.Graph
	lastHash string
}

func (s *Server) newSession(ctx context.Context, c conn) *session {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	logger := s.logger.With("session", id[:8])

	win := canvas.NewWindow(s.cfg.Width, s.cfg.Height)
	surface := canvas.New(win,
		canvas.WithLogger(logger),
		canvas.WithMode(s.cfg.Mode),
		canvas.WithSeed(s.cfg.Seed),
		canvas.WithLayoutFunc(s.runner.LayoutFunc(ctx)),
	)
	return &session{
		id:      id,
		conn:    c,
		runner:  s.runner,
		source:  s.source,
		logger:  logger,
		refresh: s.cfg.RefreshInterval,
		window:  win,
		surface: surface,
		ctx:     ctx,
		cancel:  cancel,
		opened:  time.Now(),
	}
}

// run mounts the view and serves messages until the connection closes.
func (s *session) run() {
	observability.Session().OnSessionOpen(s.ctx)
	s.logger.Debug("session opened")
	defer s.close()

	s.fetch(true)
	if s.refresh > 0 {
		go s.refreshLoop()
	}

	for {
		var m clientMessage
		if err := s.conn.ReadJSON(&m); err != nil {
			s.logger.Debug("session read ended", "err", err)
			return
		}
		s.handle(m)
	}
}

// close unmounts the view. Fetches still in flight are discarded when they
// complete.
func (s *session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.surface.Destroy()
	_ = s.conn.Close()
	observability.Session().OnSessionClose(context.Background(), time.Since(s.opened))
	s.logger.Debug("session closed", "duration", time.Since(s.opened))
}

func (s *session) refreshLoop() {
	t := time.NewTicker(s.refresh)
	defer t.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.C:
			s.fetch(false)
		}
	}
}

// fetch loads the topology asynchronously. With showLoading the page gets a
// loading frame first; timer refreshes are silent and skip rebuilding when
// the graph did not change. Only the most recent fetch is applied, and
// whichever fetch is applied clears a pending loading frame.
func (s *session) fetch(showLoading bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.fetchSeq++
	seq := s.fetchSeq
	if showLoading {
		s.pending = true
		s.surface.LoadGraph(graph.Graph{}, true)
	}
	s.mu.Unlock()

	if showLoading {
		s.sendFrame()
	}

	go func() {
		t, _, err := s.runner.Fetch(s.ctx, s.source, pipeline.Options{})

		s.mu.Lock()
		if s.closed || seq != s.fetchSeq {
			s.mu.Unlock()
			s.logger.Debug("fetch result discarded", "seq", seq)
			return
		}
		restore := s.pending
		s.pending = false
		if err != nil {
			if restore {
				// Keep what was shown before the fetch.
				s.surface.LoadGraph(s.last, false)
			}
			s.mu.Unlock()
			s.logger.Warn("fetch topology failed", "err", err)
			s.notice(err)
			if restore {
				s.sendFrame()
			}
			return
		}

		g := graph.Transform(t)
		hash := pipeline.GraphHash(g)
		if !restore && hash == s.lastHash {
			s.mu.Unlock()
			return
		}
		s.last, s.lastHash = g, hash
		s.surface.LoadGraph(g, false)
		s.mu.Unlock()
		s.sendFrame()
	}()
}

func (s *session) handle(m clientMessage) {
	observability.Session().OnSessionEvent(s.ctx, m.Type)

	switch m.Type {
	case msgNodeEnter, msgNodeLeave, msgNodeClick, msgDrag:
		if _, err := graph.ParseNodeKey(m.ID); err != nil {
			s.logger.Debug("ignoring message", "type", m.Type, "err", err)
			return
		}
	}

	var changed bool
	switch m.Type {
	case msgResize:
		s.window.Resize(m.Width, m.Height)
		changed = true
	case msgLayout:
		mode, err := layout.ParseMode(m.Mode)
		if err != nil {
			s.notice(err)
			return
		}
		s.surface.SetLayout(mode)
		changed = true
	case msgRefresh:
		s.fetch(true)
	case msgNodeEnter:
		changed = s.surface.NodeEnter(m.ID)
	case msgNodeLeave:
		changed = s.surface.NodeLeave(m.ID)
	case msgNodeClick:
		changed = s.surface.NodeClick(m.ID)
	case msgCanvasClick:
		changed = s.surface.CanvasClick()
	case msgPan:
		changed = s.surface.Pan(m.DX, m.DY)
	case msgZoom:
		changed = s.surface.Zoom(m.Factor, m.X, m.Y)
	case msgDrag:
		changed = s.surface.DragNode(m.ID, m.DX, m.DY)
	case msgFit:
		s.surface.FitView()
		changed = true
	default:
		s.logger.Debug("ignoring message", "type", m.Type)
	}
	if changed {
		s.sendFrame()
	}
}

func (s *session) sendFrame() {
	f := s.surface.Snapshot()
	s.write(frameMessage{
		Type:       msgFrame,
		InstanceID: f.InstanceID,
		Mode:       string(f.Mode),
		Loading:    f.Loading,
		Nodes:      len(f.Nodes),
		Edges:      len(f.Edges),
		SVG:        string(sink.RenderSVG(f, sink.WithRegistry(s.surface.Registry()))),
	})
}

func (s *session) notice(err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	observability.Session().OnNotice(s.ctx, string(code))
	s.write(noticeMessage{
		Type:    msgNotice,
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}

func (s *session) write(v any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		s.logger.Debug("session write failed", "err", err)
	}
}

// =============================================================================
// Registry
// =============================================================================

type registry struct {
	mu       sync.Mutex
	sessions map[*session]struct{}
}

func newRegistry() *registry {
	return &registry{sessions: make(map[*session]struct{})}
}

func (r *registry) add(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s] = struct{}{}
}

func (r *registry) remove(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *registry) closeAll() {
	r.mu.Lock()
	open := make([]*session, 0, len(r.sessions))
	for s := range r.sessions {
		open = append(open, s)
	}
	r.mu.Unlock()
	for _, s := range open {
		s.close()
	}
}
