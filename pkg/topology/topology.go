// Package topology defines the program/map topology reported by the eBPF
// platform backend.
//
// The types mirror the backend's wire format exactly: field names are the
// backend's exported Go field names, so the JSON keys are "ProgNodes",
// "MapNodes", "Edges", "ID", "Name" and so on. Program IDs and map IDs are
// separate integer spaces that may overlap.
//
// A Topology is read-only input. Nothing in this package mutates a decoded
// value; [Decode] normalizes absent sequences to empty slices so callers can
// range over them without nil checks.
package topology

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ProgNode is an eBPF program loaded on a target.
type ProgNode struct {
	GUID string `json:"GUID,omitempty" bson:"guid,omitempty"`
	ID   uint32 `json:"ID" bson:"id"`
	Name string `json:"Name" bson:"name"`
}

// MapNode is an eBPF map referenced by one or more programs.
type MapNode struct {
	GUID string `json:"GUID,omitempty" bson:"guid,omitempty"`
	ID   uint32 `json:"ID" bson:"id"`
	Name string `json:"Name" bson:"name"`
}

// Edge is a directed program → map reference.
type Edge struct {
	ProgGUID string `json:"ProgGUID,omitempty" bson:"prog_guid,omitempty"`
	MapGUID  string `json:"MapGUID,omitempty" bson:"map_guid,omitempty"`
	ProgID   uint32 `json:"ProgID" bson:"prog_id"`
	MapID    uint32 `json:"MapID" bson:"map_id"`
}

// Topology is the full program/map relationship graph.
type Topology struct {
	ProgNodes []ProgNode `json:"ProgNodes" bson:"prog_nodes"`
	MapNodes  []MapNode  `json:"MapNodes" bson:"map_nodes"`
	Edges     []Edge     `json:"Edges" bson:"edges"`
}

// New returns an empty topology with non-nil sequences.
func New() Topology {
	return Topology{
		ProgNodes: make([]ProgNode, 0),
		MapNodes:  make([]MapNode, 0),
		Edges:     make([]Edge, 0),
	}
}

// IsEmpty reports whether the topology has neither programs nor maps.
func (t Topology) IsEmpty() bool {
	return len(t.ProgNodes) == 0 && len(t.MapNodes) == 0
}

// AddProg appends a program node.
func (t *Topology) AddProg(id uint32, name string) {
	t.ProgNodes = append(t.ProgNodes, ProgNode{ID: id, Name: name})
}

// AddMap appends a map node.
func (t *Topology) AddMap(id uint32, name string) {
	t.MapNodes = append(t.MapNodes, MapNode{ID: id, Name: name})
}

// AddEdge appends a program → map edge.
func (t *Topology) AddEdge(progID, mapID uint32) {
	t.Edges = append(t.Edges, Edge{ProgID: progID, MapID: mapID})
}

// Decode reads a JSON topology from r.
// Missing or null sequences decode as empty slices.
func Decode(r io.Reader) (Topology, error) {
	var t Topology
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Topology{}, fmt.Errorf("decode topology: %w", err)
	}
	return t.Normalized(), nil
}

// Unmarshal decodes a JSON topology from data.
func Unmarshal(data []byte) (Topology, error) {
	var t Topology
	if err := json.Unmarshal(data, &t); err != nil {
		return Topology{}, fmt.Errorf("decode topology: %w", err)
	}
	return t.Normalized(), nil
}

// Marshal encodes t as JSON in the backend's wire format.
func Marshal(t Topology) ([]byte, error) {
	return json.Marshal(t.Normalized())
}

// ReadFile reads a JSON topology from path.
func ReadFile(path string) (Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return Topology{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Normalized returns t with absent sequences replaced by empty slices.
func (t Topology) Normalized() Topology {
	if t.ProgNodes == nil {
		t.ProgNodes = []ProgNode{}
	}
	if t.MapNodes == nil {
		t.MapNodes = []MapNode{}
	}
	if t.Edges == nil {
		t.Edges = []Edge{}
	}
	return t
}
