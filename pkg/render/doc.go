// Package render holds output formats for topology views.
//
// Subpackages:
//
//   - [shapes]: per-kind SVG node drawing and the kind registry
//   - [sink]: SVG, JSON and HTML console output for canvas frames
//   - [nodelink]: Graphviz DOT export
//
// [ToPDF] and [ToPNG] convert any SVG produced by those packages with the
// external rsvg-convert tool:
//
//	svg := sink.RenderSVG(frame)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [shapes]: github.com/beepf/topoconsole/pkg/render/shapes
// [sink]: github.com/beepf/topoconsole/pkg/render/sink
// [nodelink]: github.com/beepf/topoconsole/pkg/render/nodelink
package render
