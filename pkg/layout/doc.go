// Package layout selects and runs layout strategies for a render graph.
//
// # Selecting a Mode
//
// [ConfigFor] maps a [Mode] to its parameter set. It is total: any unknown
// mode yields the hierarchical configuration, so a view never ends up
// without a layout. [ParseMode] is the strict variant used for user input.
//
//	hierarchical  layered, left to right (alias "dagre")
//	force         force-directed, uniform repulsion
//	map-centric   force-directed, shared maps pulled to the center
//	radial        rings around the busiest node
//	grid          rows and columns, programs first
//
// # Computing Positions
//
// [Compute] runs the engine named by Config.Engine and returns one [Point]
// per node (the node center). Every engine:
//
//   - places each node exactly once
//   - ignores edges whose endpoints are missing
//   - is deterministic for a given graph, config and [Options.Seed]
//
// Positions live in an abstract layout space; the canvas fits them into the
// viewport afterwards.
//
// # Map-centric
//
// Map nodes repel with strength -30 - 10*refCount and weigh
// (refCount*5 + 20) / 20; programs repel with -10 and weigh 1. Gravity
// toward the origin does not depend on mass while every other force is
// divided by it, so maps shared by many programs settle near the center.
package layout
