// Package server serves the topology console.
//
// The browser page at / opens a websocket to /ws. Each websocket is a
// session that owns one canvas.Surface: pointer and layout events from the
// page drive the surface, and every change is pushed back as a rendered
// SVG frame. The JSON, SVG and DOT endpoints under /api render one-off
// snapshots through the shared pipeline.Runner.
package server
