package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/render"
)

// Options configures DOT generation.
type Options struct {
	// RankDir is the Graphviz rank direction ("LR" or "TB"). Empty means LR,
	// matching the hierarchical layout.
	RankDir string

	// Detailed adds the node kind and map reference count to labels.
	Detailed bool
}

// OptionsFor derives DOT options from a layout configuration.
func OptionsFor(cfg layout.Config) Options {
	return Options{RankDir: cfg.RankDir}
}

// ToDOT converts a render graph to Graphviz DOT source. Programs and maps
// keep their console colors; edges with a missing endpoint are left out.
func ToDOT(g graph.Graph, opts Options) string {
	rankdir := strings.ToUpper(opts.RankDir)
	if rankdir != layout.RankDirTB {
		rankdir = layout.RankDirLR
	}

	var buf bytes.Buffer
	buf.WriteString("digraph topology {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	idx := graph.NewIndex(g)
	for _, e := range g.Edges {
		if !idx.IsDrawable(e) {
			continue
		}
		arrow := ""
		if !e.EndArrow {
			arrow = " [arrowhead=none]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Source, e.Target, arrow)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	if n.IsMap() {
		return fmt.Sprintf("%s\n%s · refs %d", n.Label, n.Kind, n.RefCount)
	}
	return n.Label + "\n" + string(n.Kind)
}

func fmtAttrs(n graph.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if n.Style.Fill != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", n.Style.Fill))
	}
	if n.Style.Stroke != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", n.Style.Stroke))
	}
	if n.IsMap() {
		attrs = append(attrs, "shape=box3d")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one whose
// width and height match the viewBox, so the SVG scales in the browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders DOT source as PDF through rsvg-convert.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source as PNG through rsvg-convert at the given scale.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
