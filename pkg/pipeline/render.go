package pipeline

import (
	"bytes"
	"context"

	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/render"
	"github.com/beepf/topoconsole/pkg/render/nodelink"
	"github.com/beepf/topoconsole/pkg/render/sink"
)

// Render produces the requested formats from a frame. DOT output is built
// from the graph, since Graphviz computes its own positions.
func Render(ctx context.Context, f canvas.Frame, g graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	frameSVG := func() []byte {
		if svg == nil {
			svg = sink.RenderSVG(f, svgOptions(opts)...)
		}
		return svg
	}

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data = frameSVG()
		case FormatJSON:
			data, err = sink.RenderJSON(f)
		case FormatHTML:
			var buf bytes.Buffer
			err = sink.RenderDocument(&buf, opts.Title, f)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(nodelink.ToDOT(g, dotOptions(opts)))
		case FormatPNG:
			data, err = render.ToPNG(ctx, frameSVG(), DefaultPNGScale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, frameSVG())
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			if errors.GetCode(err) != "" {
				return nil, err
			}
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func svgOptions(opts Options) []sink.SVGOption {
	var out []sink.SVGOption
	if opts.Legend {
		out = append(out, sink.WithLegend())
	}
	if opts.Interactive {
		out = append(out, sink.WithInteraction())
	}
	return out
}

func dotOptions(opts Options) nodelink.Options {
	o := nodelink.OptionsFor(layout.ConfigFor(opts.Mode))
	o.Detailed = opts.Detailed
	return o
}
