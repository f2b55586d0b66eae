package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Kind distinguishes program nodes from map nodes.
type Kind string

// Node kinds.
const (
	KindProgram Kind = "program"
	KindMap     Kind = "map"
)

// ID prefixes for synthesized identifiers.
const (
	progPrefix = "prog-"
	mapPrefix  = "map-"
	edgePrefix = "edge-"
)

// Default node colors.
const (
	ProgramFill   = "#91d5ff"
	ProgramStroke = "#40a9ff"
	MapFill       = "#d3f261"
	MapStroke     = "#7cb305"
)

// Map node sizing.
const (
	MinMapSize    = 40.0
	MaxMapSize    = 80.0
	mapSizePerRef = 5.0
)

// =============================================================================
// Graph - Render Graph
// =============================================================================

// Graph is the renderer-ready form of a topology.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Style holds the fill and stroke colors of a node.
type Style struct {
	Fill   string `json:"fill" bson:"fill"`
	Stroke string `json:"stroke" bson:"stroke"`
}

// Node is a program or map vertex.
//
// RefCount and Size are only meaningful for map nodes; program nodes leave
// them zero.
type Node struct {
	ID       string  `json:"id" bson:"id"`
	Label    string  `json:"label" bson:"label"`
	Kind     Kind    `json:"kind" bson:"kind"`
	Style    Style   `json:"style" bson:"style"`
	RefCount int     `json:"refCount,omitempty" bson:"ref_count,omitempty"`
	Size     float64 `json:"size,omitempty" bson:"size,omitempty"`
}

// IsProgram returns true for program nodes.
func (n *Node) IsProgram() bool { return n.Kind == KindProgram }

// IsMap returns true for map nodes.
func (n *Node) IsMap() bool { return n.Kind == KindMap }

// Edge is a directed program → map reference.
type Edge struct {
	ID       string `json:"id" bson:"id"`
	Source   string `json:"source" bson:"source"`
	Target   string `json:"target" bson:"target"`
	EndArrow bool   `json:"endArrow" bson:"end_arrow"`
}

// =============================================================================
// NodeKey - Tagged Identity
// =============================================================================

// NodeKey identifies a node by kind and backend ID.
type NodeKey struct {
	Kind Kind
	ID   uint32
}

// ProgKey returns the key of program id.
func ProgKey(id uint32) NodeKey { return NodeKey{Kind: KindProgram, ID: id} }

// MapKey returns the key of map id.
func MapKey(id uint32) NodeKey { return NodeKey{Kind: KindMap, ID: id} }

// String returns the synthesized node ID ("prog-1", "map-1").
func (k NodeKey) String() string {
	if k.Kind == KindMap {
		return mapPrefix + strconv.FormatUint(uint64(k.ID), 10)
	}
	return progPrefix + strconv.FormatUint(uint64(k.ID), 10)
}

// ParseNodeKey parses a synthesized node ID back into its key.
func ParseNodeKey(id string) (NodeKey, error) {
	var (
		kind Kind
		rest string
	)
	switch {
	case strings.HasPrefix(id, progPrefix):
		kind, rest = KindProgram, strings.TrimPrefix(id, progPrefix)
	case strings.HasPrefix(id, mapPrefix):
		kind, rest = KindMap, strings.TrimPrefix(id, mapPrefix)
	default:
		return NodeKey{}, fmt.Errorf("node id %q: unknown prefix", id)
	}
	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return NodeKey{}, fmt.Errorf("node id %q: %w", id, err)
	}
	return NodeKey{Kind: kind, ID: uint32(n)}, nil
}

// EdgeID returns the synthesized ID of the edge progID → mapID.
func EdgeID(progID, mapID uint32) string {
	return edgePrefix + strconv.FormatUint(uint64(progID), 10) + "-" + strconv.FormatUint(uint64(mapID), 10)
}

// MapSize returns the visual size of a map node with refCount references.
func MapSize(refCount int) float64 {
	return max(MinMapSize, min(MaxMapSize, MinMapSize+float64(refCount)*mapSizePerRef))
}
