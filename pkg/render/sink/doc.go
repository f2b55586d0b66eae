// Package sink turns canvas frames into output documents.
//
// [RenderSVG] draws a frame as a standalone SVG with the viewport applied
// as a single group transform. [RenderJSON] encodes the frame itself for
// clients that draw on their own. [RenderHTML] writes the HTML console that
// hosts server-rendered SVG frames and forwards pointer events back over a
// websocket. [RenderDocument] wraps a single frame in a static page.
//
//	f := surface.Snapshot()
//	svg := sink.RenderSVG(f, sink.WithLegend())
package sink
