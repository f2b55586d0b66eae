// Package shapes draws the node kinds of the topology view as SVG.
//
// A [Registry] maps each [graph.Kind] to a [DrawFunc]. The process-wide
// [Default] registry is built once and holds the two built-in kinds:
//
//	program   blue rounded box, "P" glyph
//	map       green rounded box, "M" glyph, orange reference-count badge
//
// Registering a kind twice is a no-op, so surfaces can call
// [RegisterDefaults] on every mount without coordination.
//
// Nodes and edges carry two independent states, hover and selected, which
// map to stroke width and shadow color when drawn.
package shapes
