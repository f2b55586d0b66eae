package graph

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/beepf/topoconsole/pkg/topology"
)

func TestTransform(t *testing.T) {
	tests := []struct {
		name      string
		build     func() topology.Topology
		wantNodes []string
		wantEdges []string
		check     func(t *testing.T, g Graph)
	}{
		{
			name:  "Empty",
			build: topology.New,
		},
		{
			name:  "ZeroValue",
			build: func() topology.Topology { return topology.Topology{} },
		},
		{
			name: "Single",
			build: func() topology.Topology {
				topo := topology.New()
				topo.AddProg(1, "p1")
				topo.AddMap(1, "m1")
				topo.AddEdge(1, 1)
				return topo
			},
			wantNodes: []string{"prog-1", "map-1"},
			wantEdges: []string{"edge-1-1"},
			check: func(t *testing.T, g Graph) {
				m := g.Nodes[1]
				if m.RefCount != 1 {
					t.Errorf("refCount = %d, want 1", m.RefCount)
				}
				if m.Size != 45 {
					t.Errorf("size = %v, want 45", m.Size)
				}
				if g.Edges[0].Source != "prog-1" || g.Edges[0].Target != "map-1" {
					t.Errorf("edge endpoints = %s→%s", g.Edges[0].Source, g.Edges[0].Target)
				}
				if !g.Edges[0].EndArrow {
					t.Error("edge should carry an end arrow")
				}
			},
		},
		{
			name: "LabelFallback",
			build: func() topology.Topology {
				topo := topology.New()
				topo.AddProg(4, "")
				topo.AddMap(9, "")
				return topo
			},
			wantNodes: []string{"prog-4", "map-9"},
			check: func(t *testing.T, g Graph) {
				if g.Nodes[0].Label != "Program 4" {
					t.Errorf("program label = %q, want %q", g.Nodes[0].Label, "Program 4")
				}
				if g.Nodes[1].Label != "Map 9" {
					t.Errorf("map label = %q, want %q", g.Nodes[1].Label, "Map 9")
				}
				if g.Nodes[1].RefCount != 0 || g.Nodes[1].Size != MinMapSize {
					t.Errorf("unreferenced map = %+v", g.Nodes[1])
				}
			},
		},
		{
			name: "SharedIDSpace",
			build: func() topology.Topology {
				topo := topology.New()
				topo.AddProg(1, "same")
				topo.AddMap(1, "same")
				return topo
			},
			wantNodes: []string{"prog-1", "map-1"},
			check: func(t *testing.T, g Graph) {
				if g.Nodes[0].Kind != KindProgram || g.Nodes[1].Kind != KindMap {
					t.Errorf("kinds = %s, %s", g.Nodes[0].Kind, g.Nodes[1].Kind)
				}
				if g.Nodes[0].Style.Fill != ProgramFill || g.Nodes[1].Style.Fill != MapFill {
					t.Error("styles not applied per kind")
				}
			},
		},
		{
			name: "DanglingEdgeKept",
			build: func() topology.Topology {
				topo := topology.New()
				topo.AddProg(1, "p1")
				topo.AddEdge(1, 42)
				return topo
			},
			wantNodes: []string{"prog-1"},
			wantEdges: []string{"edge-1-42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Transform(tt.build())

			if got := len(g.Nodes); got != len(tt.wantNodes) {
				t.Fatalf("nodes = %d, want %d", got, len(tt.wantNodes))
			}
			for i, id := range tt.wantNodes {
				if g.Nodes[i].ID != id {
					t.Errorf("node[%d] = %s, want %s", i, g.Nodes[i].ID, id)
				}
			}
			if got := len(g.Edges); got != len(tt.wantEdges) {
				t.Fatalf("edges = %d, want %d", got, len(tt.wantEdges))
			}
			for i, id := range tt.wantEdges {
				if g.Edges[i].ID != id {
					t.Errorf("edge[%d] = %s, want %s", i, g.Edges[i].ID, id)
				}
			}
			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestTransformCounts(t *testing.T) {
	topo := topology.New()
	for i := uint32(1); i <= 6; i++ {
		topo.AddProg(i, "")
	}
	for i := uint32(1); i <= 4; i++ {
		topo.AddMap(i, "")
	}
	// map 1: 6 refs, map 2: 3 refs, map 3: 12 refs (duplicates count), map 4: 0 refs.
	for p := uint32(1); p <= 6; p++ {
		topo.AddEdge(p, 1)
		topo.AddEdge(p, 3)
		topo.AddEdge(p, 3)
		if p%2 == 0 {
			topo.AddEdge(p, 2)
		}
	}

	g := Transform(topo)

	if got, want := g.NodeCount(), len(topo.ProgNodes)+len(topo.MapNodes); got != want {
		t.Errorf("NodeCount = %d, want %d", got, want)
	}
	if got, want := g.EdgeCount(), len(topo.Edges); got != want {
		t.Errorf("EdgeCount = %d, want %d", got, want)
	}

	want := map[string]int{"map-1": 6, "map-2": 3, "map-3": 12, "map-4": 0}
	for _, n := range g.Nodes {
		if !n.IsMap() {
			continue
		}
		if n.RefCount != want[n.ID] {
			t.Errorf("%s refCount = %d, want %d", n.ID, n.RefCount, want[n.ID])
		}
		if n.Size != MapSize(n.RefCount) {
			t.Errorf("%s size = %v, want %v", n.ID, n.Size, MapSize(n.RefCount))
		}
	}
}

func TestMapSize(t *testing.T) {
	prev := MapSize(0)
	for refs := 0; refs <= 40; refs++ {
		s := MapSize(refs)
		if s < MinMapSize || s > MaxMapSize {
			t.Fatalf("MapSize(%d) = %v out of [%v, %v]", refs, s, MinMapSize, MaxMapSize)
		}
		if s < prev {
			t.Fatalf("MapSize(%d) = %v decreased from %v", refs, s, prev)
		}
		prev = s
	}
	if MapSize(8) != 80 || MapSize(100) != 80 {
		t.Error("MapSize should saturate at 80")
	}
}

func TestNodeKey(t *testing.T) {
	tests := []struct {
		id      string
		want    NodeKey
		wantErr bool
	}{
		{"prog-12", ProgKey(12), false},
		{"map-0", MapKey(0), false},
		{"edge-1-2", NodeKey{}, true},
		{"map-x", NodeKey{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := ParseNodeKey(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNodeKey(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseNodeKey(%q) = %+v, want %+v", tt.id, got, tt.want)
			}
			if got.String() != tt.id {
				t.Errorf("String() = %q, want %q", got.String(), tt.id)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	topo := topology.New()
	topo.AddProg(1, "")
	topo.AddProg(2, "")
	topo.AddMap(1, "")
	topo.AddEdge(1, 1)
	topo.AddEdge(2, 1)
	topo.AddEdge(2, 7)

	g := Transform(topo)
	idx := NewIndex(g)

	if idx.Degree("map-1") != 2 {
		t.Errorf("Degree(map-1) = %d, want 2", idx.Degree("map-1"))
	}
	if idx.Degree("prog-2") != 1 {
		t.Errorf("Degree(prog-2) = %d, want 1", idx.Degree("prog-2"))
	}
	if len(idx.Dangling) != 1 || idx.Dangling[0].ID != "edge-2-7" {
		t.Errorf("Dangling = %+v", idx.Dangling)
	}
	if Other(g.Edges[0], "prog-1") != "map-1" || Other(g.Edges[0], "map-1") != "prog-1" {
		t.Error("Other returned the wrong endpoint")
	}
}

func TestMarshalGraph(t *testing.T) {
	topo := topology.New()
	topo.AddProg(1, "p1")
	topo.AddMap(1, "m1")
	topo.AddEdge(1, 1)

	data, err := MarshalGraph(Transform(topo))
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}

	var raw map[string][]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["nodes"][1]["refCount"] != float64(1) {
		t.Errorf("refCount JSON = %v", raw["nodes"][1]["refCount"])
	}
	if _, ok := raw["nodes"][0]["refCount"]; ok {
		t.Error("program node should omit refCount")
	}
}

func TestUnmarshalGraph(t *testing.T) {
	topo := topology.New()
	topo.AddProg(1, "p1")
	topo.AddMap(1, "m1")
	topo.AddEdge(1, 1)
	want := Transform(topo)

	var buf bytes.Buffer
	if err := WriteGraph(want, &buf); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	got, err := UnmarshalGraph(buf.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalGraph: %v", err)
	}
	if got.NodeCount() != 2 || got.EdgeCount() != 1 {
		t.Fatalf("got %d nodes, %d edges", got.NodeCount(), got.EdgeCount())
	}
	if got.Nodes[1].RefCount != 1 || got.Nodes[1].Size != 45 {
		t.Errorf("map node = %+v", got.Nodes[1])
	}

	bad := []struct {
		name string
		data string
	}{
		{"not json", `{"nodes":`},
		{"foreign id", `{"nodes":[{"id":"app","kind":"program"}]}`},
		{"kind mismatch", `{"nodes":[{"id":"map-1","kind":"program"}]}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalGraph([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
