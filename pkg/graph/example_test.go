package graph_test

import (
	"fmt"

	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/topology"
)

func ExampleTransform() {
	topo := topology.New()
	topo.AddProg(1, "xdp_filter")
	topo.AddMap(1, "conn_track")
	topo.AddEdge(1, 1)

	g := graph.Transform(topo)
	for _, n := range g.Nodes {
		fmt.Printf("%s %s %q refs=%d size=%v\n", n.ID, n.Kind, n.Label, n.RefCount, n.Size)
	}
	for _, e := range g.Edges {
		fmt.Printf("%s: %s -> %s\n", e.ID, e.Source, e.Target)
	}
	// Output:
	// prog-1 program "xdp_filter" refs=0 size=0
	// map-1 map "conn_track" refs=1 size=45
	// edge-1-1: prog-1 -> map-1
}

func ExampleParseNodeKey() {
	key, err := graph.ParseNodeKey("map-42")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(key.Kind, key.ID)

	_, err = graph.ParseNodeKey("edge-1-42")
	fmt.Println(err)
	// Output:
	// map 42
	// node id "edge-1-42": unknown prefix
}
