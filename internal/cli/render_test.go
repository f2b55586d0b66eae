package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beepf/topoconsole/pkg/errors"
)

func TestRenderWritesFiles(t *testing.T) {
	env := newTestEnv(t)
	input := env.topologyFile(t)
	base := filepath.Join(env.dir, "out", "topo")

	if _, err := env.run(t, "render", "-i", input, "-f", "svg,json,dot,html", "-o", base, "-l", "grid"); err != nil {
		t.Fatal(err)
	}

	markers := map[string]string{
		"svg":  "<svg",
		"dot":  "digraph topology",
		"html": "<!DOCTYPE html>",
	}
	for format, marker := range markers {
		data, err := os.ReadFile(base + "." + format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !strings.Contains(string(data), marker) {
			t.Errorf("%s output missing %q", format, marker)
		}
	}

	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("json output is not valid JSON")
	}

	status := env.status.String()
	if !strings.Contains(status, "Rendered grid layout") {
		t.Errorf("status = %q", status)
	}
	if !strings.Contains(status, "3 nodes") {
		t.Errorf("status should report node count: %q", status)
	}
}

func TestRenderToStdout(t *testing.T) {
	env := newTestEnv(t)
	input := env.topologyFile(t)

	out, err := env.run(t, "render", "-i", input, "-f", "dot", "-o", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "digraph topology {") {
		t.Errorf("stdout = %q", out)
	}

	if _, err := env.run(t, "render", "-i", input, "-f", "dot,svg", "-o", "-"); err == nil {
		t.Error("several formats to stdout should fail")
	}
}

func TestRenderRejectsBadFlags(t *testing.T) {
	env := newTestEnv(t)
	input := env.topologyFile(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"format", []string{"-f", "bmp"}, errors.ErrCodeInvalidFormat},
		{"layout", []string{"-l", "spiral"}, errors.ErrCodeInvalidLayout},
		{"width", []string{"--width", "50000"}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "-i", input, "-o", "-"}, tt.args...)
			_, err := env.run(t, args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRenderOffline(t *testing.T) {
	env := newTestEnv(t)
	input := env.topologyFile(t)

	_, err := env.run(t, "render", "-i", input, "--offline", "-f", "json", "-o", "-")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("offline with an empty cache: err = %v, want INVALID_INPUT", err)
	}

	if _, err := env.run(t, "render", "-i", input, "-f", "json", "-o", filepath.Join(env.dir, "a.json")); err != nil {
		t.Fatal(err)
	}

	// The file is gone; the last-known copy is still served.
	if err := os.Remove(input); err != nil {
		t.Fatal(err)
	}
	env.status.Reset()
	if _, err := env.run(t, "render", "-i", input, "--offline", "-f", "json", "-o", filepath.Join(env.dir, "b.json")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.status.String(), "offline") {
		t.Errorf("status should mention offline: %q", env.status.String())
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		want    map[string]string
	}{
		{"default single", "", []string{"svg"}, map[string]string{"svg": "topology.svg"}},
		{"explicit single", "out/graph.svg", []string{"svg"}, map[string]string{"svg": "out/graph.svg"}},
		{"single without extension", "graph", []string{"dot"}, map[string]string{"dot": "graph"}},
		{"default multiple", "", []string{"svg", "json"}, map[string]string{"svg": "topology.svg", "json": "topology.json"}},
		{"base with extension", "out/graph.svg", []string{"svg", "html"}, map[string]string{"svg": "out/graph.svg", "html": "out/graph.html"}},
		{"base with other extension", "graph.v2", []string{"svg", "png"}, map[string]string{"svg": "graph.v2.svg", "png": "graph.v2.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("%s: got %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"SVG, json ,dot", []string{"svg", "json", "dot"}},
		{"png,,pdf", []string{"png", "pdf"}},
	}

	for _, tt := range tests {
		got := parseFormats(tt.in)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

func TestConsoleURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"[::]:3000", "http://localhost:3000/"},
		{"0.0.0.0:3000", "http://localhost:3000/"},
		{"127.0.0.1:8081", "http://127.0.0.1:8081/"},
		{"[::1]:3000", "http://[::1]:3000/"},
	}

	for _, tt := range tests {
		if got := consoleURL(fakeAddr(tt.addr)); got != tt.want {
			t.Errorf("consoleURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
