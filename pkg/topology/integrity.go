package topology

import (
	"fmt"
	"time"
)

// Report describes edge references that do not resolve to a declared node.
//
// Dangling references are not errors: the visualizer renders what it can
// and drops the rest. The report exists so hosts can log or display the
// discrepancy.
type Report struct {
	DanglingProgs []Edge `json:"dangling_progs,omitempty"`
	DanglingMaps  []Edge `json:"dangling_maps,omitempty"`
}

// OK reports whether every edge endpoint resolved.
func (r Report) OK() bool {
	return len(r.DanglingProgs) == 0 && len(r.DanglingMaps) == 0
}

// String summarizes the report for log lines.
func (r Report) String() string {
	if r.OK() {
		return "ok"
	}
	return fmt.Sprintf("%d dangling program refs, %d dangling map refs",
		len(r.DanglingProgs), len(r.DanglingMaps))
}

// Check scans the edges of t for endpoints missing from the node sets.
func Check(t Topology) Report {
	progs := make(map[uint32]struct{}, len(t.ProgNodes))
	for _, p := range t.ProgNodes {
		progs[p.ID] = struct{}{}
	}
	maps := make(map[uint32]struct{}, len(t.MapNodes))
	for _, m := range t.MapNodes {
		maps[m.ID] = struct{}{}
	}

	var r Report
	for _, e := range t.Edges {
		if _, ok := progs[e.ProgID]; !ok {
			r.DanglingProgs = append(r.DanglingProgs, e)
		}
		if _, ok := maps[e.MapID]; !ok {
			r.DanglingMaps = append(r.DanglingMaps, e)
		}
	}
	return r
}

// ProgramInfo is the per-program detail returned by the backend's program
// listing endpoint.
type ProgramInfo struct {
	ID               uint32    `json:"ID"`
	Type             uint32    `json:"Type"`
	Tag              string    `json:"Tag"`
	Name             string    `json:"Name"`
	CreatedByUID     uint32    `json:"CreatedByUID"`
	HaveCreatedByUID bool      `json:"HaveCreatedByUID"`
	BTF              uint32    `json:"BTF"`
	LoadTime         time.Time `json:"LoadTime"`
	Maps             []uint32  `json:"Maps"`
}
