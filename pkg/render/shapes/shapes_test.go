package shapes

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/beepf/topoconsole/pkg/graph"
)

func TestRegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	calls := 0
	first := func(buf *bytes.Buffer, n Node) { calls++ }

	if !r.Register(graph.KindProgram, first) {
		t.Fatal("first Register returned false")
	}
	if r.Register(graph.KindProgram, DrawPlain) {
		t.Error("second Register returned true")
	}

	var buf bytes.Buffer
	r.Draw(&buf, Node{Kind: graph.KindProgram})
	if calls != 1 {
		t.Errorf("first draw function called %d times, want 1", calls)
	}
}

func TestDefaultRegistry(t *testing.T) {
	var wg sync.WaitGroup
	regs := make([]*Registry, 8)
	for i := range regs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			regs[i] = Default()
		}(i)
	}
	wg.Wait()

	for _, r := range regs {
		if r != regs[0] {
			t.Fatal("Default returned different registries")
		}
	}
	got := Default().Kinds()
	if len(got) != 2 || got[0] != graph.KindMap || got[1] != graph.KindProgram {
		t.Errorf("Kinds = %v, want [map program]", got)
	}

	// Re-registering the defaults must be harmless.
	RegisterDefaults(Default())
	if len(Default().Kinds()) != 2 {
		t.Error("RegisterDefaults added duplicate kinds")
	}
}

func TestDrawProgram(t *testing.T) {
	var buf bytes.Buffer
	DrawProgram(&buf, Node{ID: "prog-1", Label: "xdp_pass", Kind: graph.KindProgram, W: 120, H: 40, Fill: graph.ProgramFill, Stroke: graph.ProgramStroke})
	out := buf.String()

	for _, want := range []string{`data-id="prog-1"`, `fill="#91d5ff"`, `stroke="#40a9ff"`, `>P</text>`, `>xdp_pass</text>`, `rx="4"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "badge") {
		t.Error("program node should not have a badge")
	}
}

func TestDrawMapBadge(t *testing.T) {
	tests := []struct {
		name      string
		refCount  int
		wantBadge bool
	}{
		{"unreferenced", 0, false},
		{"referenced", 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			DrawMap(&buf, Node{ID: "map-1", Label: "m", Kind: graph.KindMap, W: 120, H: 40, Fill: graph.MapFill, Stroke: graph.MapStroke, RefCount: tt.refCount})
			out := buf.String()
			if !strings.Contains(out, `>M</text>`) {
				t.Error("missing M glyph")
			}
			if got := strings.Contains(out, `fill="#fa8c16"`); got != tt.wantBadge {
				t.Errorf("badge = %v, want %v", got, tt.wantBadge)
			}
			if tt.wantBadge && !strings.Contains(out, ">3</text>") {
				t.Error("badge should show the reference count")
			}
		})
	}
}

func TestDrawStates(t *testing.T) {
	var buf bytes.Buffer
	DrawProgram(&buf, Node{ID: "prog-1", Kind: graph.KindProgram, W: 120, H: 40, Hover: true})
	if !strings.Contains(buf.String(), `class="node node-program hover"`) || !strings.Contains(buf.String(), "shadow-hover") {
		t.Errorf("hover not rendered:\n%s", buf.String())
	}

	buf.Reset()
	DrawEdge(&buf, Edge{ID: "edge-1-1", Arrow: true, Selected: true})
	out := buf.String()
	if !strings.Contains(out, `stroke="#1890ff"`) || !strings.Contains(out, "arrow-selected") || !strings.Contains(out, `stroke-width="3"`) {
		t.Errorf("selected edge not rendered:\n%s", out)
	}
}

func TestDrawEscapesLabels(t *testing.T) {
	var buf bytes.Buffer
	DrawMap(&buf, Node{ID: "map-1", Label: "<script>", Kind: graph.KindMap, W: 120, H: 40})
	if strings.Contains(buf.String(), "<script>") {
		t.Error("label not escaped")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		label string
		width float64
		want  string
	}{
		{"short", 96, "short"},
		{"a_very_long_map_name_here", 70, "a_very_lo…"},
		{"x", 0, "x"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.label, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %v) = %q, want %q", tt.label, tt.width, got, tt.want)
		}
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		name         string
		fx, fy       float64
		wantX, wantY float64
	}{
		{"from left", -200, 0, -60, 0},
		{"from above", 0, -200, 0, -20},
		{"inside", 10, 5, 10, 5},
		{"same point", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Clip(0, 0, 120, 40, tt.fx, tt.fy)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Clip = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}
