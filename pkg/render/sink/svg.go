package sink

import (
	"bytes"
	"fmt"

	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/render/shapes"
)

const interactionCSS = `
    .node { cursor: pointer; }
    .node rect, .edge { transition: stroke-width 0.2s ease; }
    .placeholder { font: 14px sans-serif; fill: #999; }
    .legend { font: 12px sans-serif; }`

// Standalone hover/click highlighting for SVG files opened outside the
// console; the console page drives states from the server instead.
const interactionJS = `
    const edgesOf = id => [...document.querySelectorAll('.edge')].filter(e => e.dataset.source === id || e.dataset.target === id);
    document.querySelectorAll('.node').forEach(n => {
      const id = n.dataset.id;
      n.addEventListener('mouseenter', () => { n.classList.add('hover'); edgesOf(id).forEach(e => e.classList.add('hover')); });
      n.addEventListener('mouseleave', () => { n.classList.remove('hover'); edgesOf(id).forEach(e => e.classList.remove('hover')); });
    });`

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	registry    *shapes.Registry
	interactive bool
	legend      bool
}

// WithRegistry draws nodes with r instead of the default registry.
func WithRegistry(r *shapes.Registry) SVGOption { return func(s *svgRenderer) { s.registry = r } }

// WithInteraction embeds a small script that highlights hovered nodes.
func WithInteraction() SVGOption { return func(s *svgRenderer) { s.interactive = true } }

// WithLegend adds a program/map legend in the top-left corner.
func WithLegend() SVGOption { return func(s *svgRenderer) { s.legend = true } }

// RenderSVG draws f as a standalone SVG document sized to the frame.
//
// A loading frame renders a loading placeholder and an empty one a
// "no topology data" placeholder; neither is an error.
func RenderSVG(f canvas.Frame, opts ...SVGOption) []byte {
	r := svgRenderer{registry: shapes.Default()}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f" data-mode="%s">`+"\n",
		f.Width, f.Height, f.Width, f.Height, f.Mode)
	shapes.Defs(&buf)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)

	switch {
	case f.Loading:
		placeholder(&buf, f, "Loading…")
	case f.Empty || len(f.Nodes) == 0:
		placeholder(&buf, f, "No topology data")
	default:
		renderGraph(&buf, f, r.registry)
	}

	if r.legend {
		renderLegend(&buf)
	}
	if r.interactive {
		fmt.Fprintf(&buf, "  <script><![CDATA[%s\n  ]]></script>\n", interactionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderGraph(buf *bytes.Buffer, f canvas.Frame, reg *shapes.Registry) {
	v := f.Viewport
	fmt.Fprintf(buf, `  <g class="viewport" transform="matrix(%.4f 0 0 %.4f %.2f %.2f)">`+"\n", v.Zoom, v.Zoom, v.X, v.Y)
	for _, e := range f.Edges {
		shapes.DrawEdge(buf, e)
	}
	for _, n := range f.Nodes {
		reg.Draw(buf, n)
	}
	buf.WriteString("  </g>\n")
}

func placeholder(buf *bytes.Buffer, f canvas.Frame, text string) {
	fmt.Fprintf(buf, `  <text class="placeholder" x="%.0f" y="%.0f" text-anchor="middle">%s</text>`+"\n",
		f.Width/2, f.Height/2, text)
}

func renderLegend(buf *bytes.Buffer) {
	buf.WriteString(`  <g class="legend" transform="translate(12,12)">` + "\n")
	fmt.Fprintf(buf, `    <rect x="0" y="0" width="14" height="14" rx="3" fill="%s" stroke="%s"/><text x="20" y="11">eBPF program</text>`+"\n",
		graph.ProgramFill, graph.ProgramStroke)
	fmt.Fprintf(buf, `    <rect x="0" y="20" width="14" height="14" rx="3" fill="%s" stroke="%s"/><text x="20" y="31">eBPF map</text>`+"\n",
		graph.MapFill, graph.MapStroke)
	buf.WriteString("  </g>\n")
}
