package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/pipeline"
)

// Config holds server configuration.
type Config struct {
	Listen         string
	AllowedOrigins []string // "*" allows every origin
	// RefreshInterval re-fetches the topology for open sessions. Zero
	// disables timed refresh.
	RefreshInterval time.Duration
	// RequestTimeout bounds API requests. Websocket sessions are exempt.
	RequestTimeout time.Duration

	// Initial view for new sessions and the default for API requests.
	Mode   layout.Mode
	Width  float64
	Height float64
	Seed   uint64
}

func (c Config) withDefaults() Config {
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if !c.Mode.Known() {
		c.Mode = layout.DefaultMode
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = layout.DefaultWidth, layout.DefaultHeight
	}
	if c.Seed == 0 {
		c.Seed = layout.DefaultSeed
	}
	return c
}

func (c Config) allowAll() bool { return slices.Contains(c.AllowedOrigins, "*") }

// Server is the console HTTP server.
type Server struct {
	cfg        Config
	runner     *pipeline.Runner
	source     pipeline.Source
	logger     *log.Logger
	gatherer   prometheus.Gatherer
	router     chi.Router
	httpServer *http.Server
	sessions   *registry
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithGatherer sets the registry served at /metrics.
func WithGatherer(g prometheus.Gatherer) Option { return func(s *Server) { s.gatherer = g } }

// New creates a server that reads topologies from src.
func New(cfg Config, runner *pipeline.Runner, src pipeline.Source, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg.withDefaults(),
		runner:   runner,
		source:   src,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		gatherer: prometheus.DefaultGatherer,
		sessions: newRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleSession)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Get("/", s.handleConsole)
		r.Route("/api", func(r chi.Router) {
			r.Get("/layouts", s.handleLayouts)
			r.Get("/topology", s.handleTopology(pipeline.FormatJSON))
			r.Get("/topology.svg", s.handleTopology(pipeline.FormatSVG))
			r.Get("/topology.dot", s.handleTopology(pipeline.FormatDOT))
			r.Get("/programs", s.handlePrograms)
		})
	})

	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the number of open console sessions.
func (s *Server) Sessions() int { return s.sessions.len() }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.logger.Info("console listening", "addr", ln.Addr().String(), "backend", s.source.Name())

	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.sessions.closeAll()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// requestLogger logs each request at debug level through l.
func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
