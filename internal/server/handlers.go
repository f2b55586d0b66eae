package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/beepf/topoconsole/pkg/buildinfo"
	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/pipeline"
	"github.com/beepf/topoconsole/pkg/render/sink"
	"github.com/beepf/topoconsole/pkg/topology"
)

// ProgramLister is implemented by sources that can list program details.
type ProgramLister interface {
	ListPrograms(ctx context.Context) ([]topology.ProgramInfo, error)
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build":    buildinfo.Get(),
		"sessions": s.sessions.len(),
	})
}

func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := sink.RenderHTML(w, sink.Page{
		Width:  s.cfg.Width,
		Height: s.cfg.Height,
		WSPath: "/ws",
		Mode:   s.cfg.Mode,
	})
	if err != nil {
		s.logger.Error("render console page", "err", err)
	}
}

type layoutInfo struct {
	Mode    layout.Mode   `json:"mode"`
	Label   string        `json:"label"`
	Default bool          `json:"default,omitempty"`
	Config  layout.Config `json:"config"`
}

func (s *Server) handleLayouts(w http.ResponseWriter, r *http.Request) {
	out := make([]layoutInfo, 0, len(layout.Modes))
	for _, m := range layout.Modes {
		out = append(out, layoutInfo{
			Mode:    m,
			Label:   m.Label(),
			Default: m == s.cfg.Mode,
			Config:  layout.ConfigFor(m),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTopology renders one snapshot of the backend topology.
//
// Query parameters: layout, width, height, legend (svg), detailed (dot).
func (s *Server) handleTopology(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.queryOptions(r)
		if err != nil {
			writeError(w, err)
			return
		}
		opts.Formats = []string{format}

		res, err := s.runner.Execute(r.Context(), s.source, opts)
		if err != nil {
			s.logger.Warn("render topology", "format", format, "err", err)
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentTypes[format])
		w.Header().Set("X-Graph-Hash", res.GraphHash)
		_, _ = w.Write(res.Artifacts[format])
	}
}

func (s *Server) queryOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Mode:     s.cfg.Mode,
		Width:    s.cfg.Width,
		Height:   s.cfg.Height,
		Seed:     s.cfg.Seed,
		Legend:   q.Get("legend") == "true",
		Detailed: q.Get("detailed") == "true",
		Logger:   s.logger,
	}
	if v := q.Get("layout"); v != "" {
		m, err := layout.ParseMode(v)
		if err != nil {
			return opts, err
		}
		opts.Mode = m
	}
	for name, dst := range map[string]*float64{"width": &opts.Width, "height": &opts.Height} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a number", name)
		}
		*dst = f
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "seed must be a non-negative integer")
		}
		opts.Seed = seed
	}
	return opts, errors.ValidateDimensions(opts.Width, opts.Height)
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.source.(ProgramLister)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "source %s does not list programs", s.source.Name()))
		return
	}
	progs, err := lister.ListPrograms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progs)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Error: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidLayout, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeBackend, errors.ErrCodeNetwork, errors.ErrCodeDecode:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
