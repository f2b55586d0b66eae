package client

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beepf/topoconsole/pkg/errors"
)

const topoJSON = `{
  "ProgNodes": [{"ID": 1, "Name": "xdp_pass"}, {"ID": 2, "Name": "tc_egress"}],
  "MapNodes": [{"ID": 1, "Name": "counters"}],
  "Edges": [{"ProgID": 1, "MapID": 1}, {"ProgID": 2, "MapID": 1}]
}`

func newServer(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return c, &calls
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http", "http://localhost:8080", false},
		{"https with path", "https://beepf.example.com/console/", false},
		{"empty", "", true},
		{"no scheme", "localhost:8080", true},
		{"ftp", "ftp://host", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestClientOptions(t *testing.T) {
	c, err := New("http://localhost:8080/", WithTimeout(5*time.Second), WithHeaders(map[string]string{"X-Token": "t"}))
	if err != nil {
		t.Fatal(err)
	}
	if c.http.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", c.http.Timeout)
	}
	if c.headers["X-Token"] != "t" || c.headers["Accept"] != "application/json" {
		t.Errorf("headers = %v", c.headers)
	}
	if c.BaseURL() != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}

	d, _ := New("http://localhost:8080", WithTimeout(0))
	if d.http.Timeout != DefaultTimeout {
		t.Errorf("zero timeout should keep default, got %v", d.http.Timeout)
	}
}

func TestGetTopology(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != TopologyPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(topoJSON))
	})

	topo, err := c.GetTopology(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(topo.ProgNodes) != 2 || len(topo.MapNodes) != 1 || len(topo.Edges) != 2 {
		t.Errorf("topology = %+v", topo)
	}
	if topo.ProgNodes[0].Name != "xdp_pass" {
		t.Errorf("first program = %+v", topo.ProgNodes[0])
	}
}

func TestGetTopologyNullSequences(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ProgNodes": null, "MapNodes": null, "Edges": null}`))
	})
	topo, err := c.GetTopology(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if topo.ProgNodes == nil || topo.MapNodes == nil || topo.Edges == nil {
		t.Error("null sequences should decode as empty slices")
	}
}

func TestEnvelope(t *testing.T) {
	t.Run("success unwraps data", func(t *testing.T) {
		c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true, "errorCode": 200, "data": ` + topoJSON + `}`))
		})
		topo, err := c.GetTopology(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(topo.ProgNodes) != 2 {
			t.Errorf("topology = %+v", topo)
		}
	})

	t.Run("failure", func(t *testing.T) {
		c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false, "errorCode": 500, "errorMsg": "load topology failed"}`))
		})
		_, err := c.GetTopology(context.Background())
		var be *errors.BackendError
		if !stderrors.As(err, &be) {
			t.Fatalf("err = %v, want BackendError", err)
		}
		if be.ErrorCode != 500 || be.Message != "load topology failed" || be.Status != 0 {
			t.Errorf("backend error = %+v", be)
		}
		if !errors.Is(err, errors.ErrCodeBackend) {
			t.Error("error should carry BACKEND code")
		}
	})
}

func TestListPrograms(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"raw", `[{"ID": 7, "Name": "xdp_pass", "Tag": "abc", "Maps": [1, 2]}]`},
		{"enveloped", `{"success": true, "data": [{"ID": 7, "Name": "xdp_pass", "Tag": "abc", "Maps": [1, 2]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != ProgramsPath {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			})
			progs, err := c.ListPrograms(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(progs) != 1 || progs[0].ID != 7 || len(progs[0].Maps) != 2 {
				t.Errorf("programs = %+v", progs)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    errors.Code
	}{
		{"5xx", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}, errors.ErrCodeBackend},
		{"4xx envelope", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success": false, "errorCode": 404, "errorMsg": "no route"}`))
		}, errors.ErrCodeBackend},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ProgNodes": [`))
		}, errors.ErrCodeDecode},
		{"wrong shape", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`"hello"`))
		}, errors.ErrCodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newServer(t, tt.handler)
			_, err := c.GetTopology(context.Background())
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("backend called %d times, want exactly 1", n)
			}
		})
	}
}

func TestBackendErrorMessage(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success": false, "errorCode": 404, "errorMsg": "no route"}`))
	})
	_, err := c.GetTopology(context.Background())
	var be *errors.BackendError
	if !stderrors.As(err, &be) || be.Status != 404 || be.ErrorCode != 404 || be.Message != "no route" {
		t.Errorf("err = %#v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := New(url)
	err := c.Ping(context.Background())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("err = %v, want NETWORK", err)
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetTopology(ctx)
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("err = %v, want TIMEOUT", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
}
