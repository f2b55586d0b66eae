package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/pipeline"
	"github.com/beepf/topoconsole/pkg/topology"
)

type listingSource struct {
	pipeline.StaticSource
}

func (listingSource) ListPrograms(context.Context) ([]topology.ProgramInfo, error) {
	return []topology.ProgramInfo{{ID: 1, Tag: "a04f5eef06a7f555"}}, nil
}

func newTestServer(t *testing.T, src pipeline.Source) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(Config{Mode: layout.ModeGrid}, pipeline.NewRunner(nil, nil, nil), src,
		WithGatherer(prometheus.NewRegistry()))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, pipeline.StaticSource{Topology: sampleTopology()})

	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "ok" || out.Sessions != 0 {
		t.Errorf("health = %+v", out)
	}
}

func TestConsolePage(t *testing.T) {
	_, ts := newTestServer(t, pipeline.StaticSource{Topology: sampleTopology()})

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, `value="grid" checked`) {
		t.Error("configured mode should be preselected")
	}
}

func TestLayouts(t *testing.T) {
	_, ts := newTestServer(t, pipeline.StaticSource{})

	_, body := get(t, ts.URL+"/api/layouts")
	var out []layoutInfo
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(layout.Modes) {
		t.Fatalf("layouts = %d", len(out))
	}
	for _, l := range out {
		if l.Default != (l.Mode == layout.ModeGrid) {
			t.Errorf("%s: default = %v", l.Mode, l.Default)
		}
		if l.Config.Mode != l.Mode {
			t.Errorf("%s: config mode = %s", l.Mode, l.Config.Mode)
		}
	}
}

func TestTopologyEndpoints(t *testing.T) {
	_, ts := newTestServer(t, pipeline.StaticSource{Topology: sampleTopology()})

	tests := []struct {
		path        string
		contentType string
		want        string
	}{
		{"/api/topology", "application/json", `"mode": "grid"`},
		{"/api/topology?layout=radial&width=640&height=480", "application/json", `"width": 640`},
		{"/api/topology.svg?legend=true", "image/svg+xml", `class="legend"`},
		{"/api/topology.dot?detailed=true", "text/vnd.graphviz; charset=utf-8", "digraph topology"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, body)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q", got)
			}
			if resp.Header.Get("X-Graph-Hash") == "" {
				t.Error("missing X-Graph-Hash")
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
		})
	}
}

func TestTopologyErrors(t *testing.T) {
	_, ts := newTestServer(t, pipeline.StaticSource{Topology: sampleTopology()})

	tests := []struct {
		path   string
		status int
		code   errors.Code
	}{
		{"/api/topology?layout=spiral", http.StatusBadRequest, errors.ErrCodeInvalidLayout},
		{"/api/topology?width=wide", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/topology?height=50", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/topology?width=NaN", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/topology.svg?width=NaN", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/topology?seed=notanumber", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/topology?seed=-3", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/programs", http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var out errorResponse
			if err := json.Unmarshal([]byte(body), &out); err != nil {
				t.Fatal(err)
			}
			if out.Error != tt.code {
				t.Errorf("code = %s, want %s", out.Error, tt.code)
			}
		})
	}
}

func TestQueryOptions(t *testing.T) {
	srv := New(Config{Mode: layout.ModeForce, Seed: 42}, pipeline.NewRunner(nil, nil, nil), pipeline.StaticSource{},
		WithGatherer(prometheus.NewRegistry()))

	tests := []struct {
		query string
		seed  uint64
		width float64
	}{
		{"", 42, layout.DefaultWidth},
		{"seed=7", 7, layout.DefaultWidth},
		{"seed=7&width=640", 7, 640},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/topology?"+tt.query, nil)
			opts, err := srv.queryOptions(r)
			if err != nil {
				t.Fatal(err)
			}
			if opts.Seed != tt.seed || opts.Width != tt.width {
				t.Errorf("seed/width = %d/%v, want %d/%v", opts.Seed, opts.Width, tt.seed, tt.width)
			}
		})
	}
}

func TestTopologyBackendFailure(t *testing.T) {
	src := &switchSource{err: &errors.BackendError{Status: 500, Message: "boom"}}
	_, ts := newTestServer(t, src)

	resp, _ := get(t, ts.URL+"/api/topology")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}

	src.set(topology.Topology{}, errors.New(errors.ErrCodeTimeout, "slow"))
	resp, _ = get(t, ts.URL+"/api/topology")
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", resp.StatusCode)
	}
}

func TestPrograms(t *testing.T) {
	_, ts := newTestServer(t, listingSource{})

	resp, body := get(t, ts.URL+"/api/programs")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "a04f5eef06a7f555") {
		t.Errorf("body = %s", body)
	}
}

func TestMetrics(t *testing.T) {
	_, ts := newTestServer(t, pipeline.StaticSource{})
	resp, _ := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestWebsocketSession(t *testing.T) {
	srv, ts := newTestServer(t, pipeline.StaticSource{Topology: sampleTopology()})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}

	read := func() frameMessage {
		t.Helper()
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var f frameMessage
		if err := ws.ReadJSON(&f); err != nil {
			t.Fatal(err)
		}
		return f
	}

	if f := read(); f.Type != msgFrame || !f.Loading {
		t.Errorf("first message = %+v", f)
	}
	if f := read(); f.Nodes != 3 {
		t.Errorf("nodes = %d", f.Nodes)
	}

	if err := ws.WriteJSON(clientMessage{Type: msgLayout, Mode: "force"}); err != nil {
		t.Fatal(err)
	}
	if f := read(); f.Mode != string(layout.ModeForce) {
		t.Errorf("mode = %q", f.Mode)
	}
	if srv.Sessions() != 1 {
		t.Errorf("sessions = %d", srv.Sessions())
	}

	ws.Close()
	deadline := time.Now().Add(2 * time.Second)
	for srv.Sessions() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.Sessions() != 0 {
		t.Error("session should be removed after close")
	}
}

func TestCheckOrigin(t *testing.T) {
	srv := New(Config{AllowedOrigins: []string{"http://console.local"}}, pipeline.NewRunner(nil, nil, nil), pipeline.StaticSource{})

	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "example.com", true},
		{"http://console.local", "example.com", true},
		{"http://example.com", "example.com", true},
		{"http://evil.test", "example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := srv.checkOrigin(r); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
