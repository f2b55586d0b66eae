package layout

import (
	"math/rand/v2"
	"strings"

	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/graph"
)

// =============================================================================
// Modes
// =============================================================================

// Mode names a layout strategy.
type Mode string

// Supported layout modes.
const (
	ModeHierarchical Mode = "hierarchical"
	ModeForce        Mode = "force"
	ModeMapCentric   Mode = "map-centric"
	ModeRadial       Mode = "radial"
	ModeGrid         Mode = "grid"
)

// ModeDagre is accepted as an alias of [ModeHierarchical].
const ModeDagre Mode = "dagre"

// DefaultMode is the mode a freshly mounted view starts in.
const DefaultMode = ModeMapCentric

// Modes lists the selectable modes in display order.
var Modes = []Mode{ModeHierarchical, ModeForce, ModeMapCentric, ModeRadial, ModeGrid}

// Label returns the human-readable name of m.
func (m Mode) Label() string {
	switch m.normalize() {
	case ModeForce:
		return "Force"
	case ModeMapCentric:
		return "Map-centric"
	case ModeRadial:
		return "Radial"
	case ModeGrid:
		return "Grid"
	default:
		return "Hierarchical"
	}
}

// Known reports whether m names one of the supported modes or an alias.
func (m Mode) Known() bool {
	switch m {
	case ModeHierarchical, ModeDagre, ModeForce, ModeMapCentric, ModeRadial, ModeGrid:
		return true
	}
	return false
}

func (m Mode) normalize() Mode {
	if m == ModeDagre || !m.Known() {
		return ModeHierarchical
	}
	return m
}

// ParseMode parses a user-supplied mode name (case-insensitive).
// Unlike [ConfigFor], unknown names are an error so CLI and API callers can
// report them.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Known() {
		return "", errors.New(errors.ErrCodeInvalidLayout, "unknown layout %q (want hierarchical, force, map-centric, radial or grid)", s)
	}
	return m.normalize(), nil
}

// =============================================================================
// Config
// =============================================================================

// Engine names the algorithm that consumes a Config.
type Engine string

// Layout engines.
const (
	EngineLayered Engine = "layered"
	EngineForce   Engine = "force"
	EngineRadial  Engine = "radial"
	EngineGrid    Engine = "grid"
)

// Rank directions for the layered engine.
const (
	RankDirLR = "LR"
	RankDirTB = "TB"
)

// Point is a position in layout space.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// NodeFunc computes a per-node parameter.
type NodeFunc func(n graph.Node) float64

// PlaceFunc returns the starting position of a node in the force engine.
type PlaceFunc func(n graph.Node, rng *rand.Rand) Point

// Config is the parameter set for one layout mode.
//
// Only the fields relevant to Engine are set. Per-node parameters are
// functions; their *Expr companions describe them for display.
type Config struct {
	Mode           Mode   `json:"mode"`
	Engine         Engine `json:"engine"`
	PreventOverlap bool   `json:"preventOverlap,omitempty"`

	// Layered
	RankDir string  `json:"rankdir,omitempty"`
	NodeSep float64 `json:"nodesep,omitempty"`
	RankSep float64 `json:"ranksep,omitempty"`

	// Force
	LinkDistance     float64   `json:"linkDistance,omitempty"`
	NodeStrength     NodeFunc  `json:"-"`
	NodeStrengthExpr string    `json:"nodeStrength,omitempty"`
	EdgeStrength     float64   `json:"edgeStrength,omitempty"`
	NodeSpacing      float64   `json:"nodeSpacing,omitempty"`
	Center           *Point    `json:"center,omitempty"`
	Gravity          float64   `json:"gravity,omitempty"`
	NodeMass         NodeFunc  `json:"-"`
	NodeMassExpr     string    `json:"nodeMass,omitempty"`
	NodeDiameter     NodeFunc  `json:"-"`
	NodeDiameterExpr string    `json:"nodeDiameter,omitempty"`
	Iterations       int       `json:"iterations,omitempty"`
	InitialPosition  PlaceFunc `json:"-"`
	InitialExpr      string    `json:"initialPosition,omitempty"`

	// Radial
	UnitRadius float64 `json:"unitRadius,omitempty"`

	// Grid
	NodeSize float64 `json:"nodeSize,omitempty"`
	SortBy   string  `json:"sortBy,omitempty"`
}

// Force engine default iteration count.
const DefaultIterations = 300

// ConfigFor returns the layout configuration for mode.
// ConfigFor is total: unknown modes yield the hierarchical configuration.
func ConfigFor(mode Mode) Config {
	switch mode.normalize() {
	case ModeForce:
		return Config{
			Mode:             ModeForce,
			Engine:           EngineForce,
			PreventOverlap:   true,
			LinkDistance:     100,
			NodeStrength:     constant(-50),
			NodeStrengthExpr: "-50",
			EdgeStrength:     0.1,
			NodeSpacing:      50,
			Iterations:       DefaultIterations,
		}
	case ModeMapCentric:
		return mapCentric()
	case ModeRadial:
		return Config{
			Mode:           ModeRadial,
			Engine:         EngineRadial,
			PreventOverlap: true,
			UnitRadius:     100,
		}
	case ModeGrid:
		return Config{
			Mode:           ModeGrid,
			Engine:         EngineGrid,
			PreventOverlap: true,
			NodeSize:       40,
			SortBy:         "kind",
		}
	default:
		return Config{
			Mode:           ModeHierarchical,
			Engine:         EngineLayered,
			PreventOverlap: true,
			RankDir:        RankDirLR,
			NodeSep:        50,
			RankSep:        70,
		}
	}
}

// mapCentric pulls heavily referenced maps toward the center: they repel
// more, weigh more and start at the origin, while gravity holds the whole
// graph around it.
func mapCentric() Config {
	return Config{
		Mode:           ModeMapCentric,
		Engine:         EngineForce,
		PreventOverlap: true,
		LinkDistance:   100,
		NodeStrength: func(n graph.Node) float64 {
			if n.Kind == graph.KindMap {
				return -30 - 10*float64(n.RefCount)
			}
			return -10
		},
		NodeStrengthExpr: "map: -30 - 10*refCount; program: -10",
		EdgeStrength:     0.5,
		NodeSpacing:      50,
		Center:           &Point{},
		Gravity:          0.1,
		NodeMass: func(n graph.Node) float64 {
			if n.Kind == graph.KindMap && n.RefCount > 0 {
				return (float64(n.RefCount)*5 + 20) / 20
			}
			return 1
		},
		NodeMassExpr: "map: (refCount*5 + 20) / 20 when referenced; otherwise 1",
		NodeDiameter: func(n graph.Node) float64 {
			if n.Kind == graph.KindMap && n.RefCount > 0 {
				return float64(n.RefCount)*5 + 20
			}
			return 20
		},
		NodeDiameterExpr: "map: refCount*5 + 20 when referenced; otherwise 20",
		Iterations:       500,
		InitialPosition: func(n graph.Node, rng *rand.Rand) Point {
			if n.Kind == graph.KindMap && n.RefCount > 0 {
				return Point{}
			}
			return Point{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100}
		},
		InitialExpr: "referenced maps at origin; others uniform in [-100, 100)",
	}
}

func constant(v float64) NodeFunc {
	return func(graph.Node) float64 { return v }
}
