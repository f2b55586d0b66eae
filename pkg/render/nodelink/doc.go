// Package nodelink exports topologies as Graphviz diagrams.
//
// [ToDOT] writes DOT source with program and map colors matching the
// console; [RenderSVG] lays it out with the embedded Graphviz so no dot
// binary is needed:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{RankDir: "LR"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// PDF and PNG go through rsvg-convert (see [RenderPDF], [RenderPNG]).
package nodelink
