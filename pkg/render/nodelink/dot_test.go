package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/topology"
)

func sample() graph.Graph {
	topo := topology.New()
	topo.AddProg(1, "xdp_pass")
	topo.AddMap(7, "counters")
	topo.AddEdge(1, 7)
	topo.AddEdge(1, 99)
	return graph.Transform(topo)
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	for _, want := range []string{
		"digraph topology {",
		"rankdir=LR;",
		`"prog-1" [label="xdp_pass", fillcolor="#91d5ff", color="#40a9ff"];`,
		`"map-7" [label="counters", fillcolor="#d3f261", color="#7cb305", shape=box3d];`,
		`"prog-1" -> "map-7";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "map-99") {
		t.Error("dangling edge exported")
	}
}

func TestToDOTOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"hierarchical config", OptionsFor(layout.ConfigFor(layout.ModeHierarchical)), "rankdir=LR;"},
		{"explicit TB", Options{RankDir: "tb"}, "rankdir=TB;"},
		{"unknown falls back", Options{RankDir: "XY"}, "rankdir=LR;"},
		{"detailed", Options{Detailed: true}, `label="counters\nmap · refs 1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if dot := ToDOT(sample(), tt.opts); !strings.Contains(dot, tt.want) {
				t.Errorf("DOT missing %q\n%s", tt.want, dot)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sample(), Options{}))
	if err != nil {
		t.Fatal(err)
	}
	s := string(svg)
	if !strings.Contains(s, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("root element not normalized: %.200s", s)
	}
	if !strings.Contains(s, "xdp_pass") || !strings.Contains(s, "counters") {
		t.Error("labels missing from SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if got != want {
		t.Errorf("got %s\nwant %s", got, want)
	}
	if out := normalizeViewBox([]byte("<svg/>")); string(out) != "<svg/>" {
		t.Error("svg without viewBox modified")
	}
}
