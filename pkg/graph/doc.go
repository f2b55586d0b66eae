// Package graph provides the render graph derived from a backend topology.
//
// The render graph is the single input format for layout engines, the canvas
// surface and every render sink. It is rebuilt from scratch whenever the
// topology changes and is never patched incrementally.
//
// # Architecture
//
//   - pkg/topology.Topology: backend wire format (input, read-only)
//   - [Graph]: renderer-ready node/edge lists (this package)
//   - pkg/layout.Positions: coordinates computed for a [Graph]
//
// Use [Transform] to go from the first to the second.
//
// # Identifiers
//
// Program IDs and map IDs are independent integer spaces, so node IDs are
// synthesized with a kind prefix:
//
//	prog-1      program 1
//	map-1       map 1
//	edge-1-1    program 1 → map 1
//
// [NodeKey] carries the same identity as a tagged value for callers that
// prefer not to build or parse strings.
//
// # Reference Counts
//
// Each map node carries the number of edges that target it. The count
// drives the visual size of the node:
//
//	size = clamp(40, 80, 40 + refCount*5)
//
// and, in the map-centric layout, its physical mass.
//
// # Concurrency
//
// A Graph is immutable once built and is safe for concurrent reads.
package graph
