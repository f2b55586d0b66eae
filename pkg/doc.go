// Package pkg holds the libraries behind the topoconsole eBPF topology
// visualizer.
//
// # Overview
//
// Topoconsole shows which eBPF programs use which maps. A backend agent
// reports the topology; topoconsole lays it out and draws it as an
// interactive console, static documents or a terminal browser.
//
// # Architecture
//
// The data flows through these packages:
//
//	backend agent (HTTP) or JSON file
//	         ↓
//	    [client], [topology] (fetch and decode)
//	         ↓
//	    [graph] (program/map nodes, usage edges)
//	         ↓
//	    [layout] (hierarchical, force, map-centric, radial, grid)
//	         ↓
//	    [canvas] (viewport, hover, selection)
//	         ↓
//	    [render] (SVG, JSON, HTML, DOT, PNG, PDF)
//
// [pipeline] runs the chain and caches each stage through [cache].
//
// # Quick Start
//
//	backend, err := client.New("http://127.0.0.1:8080")
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, backend, pipeline.Options{
//	    Mode:    layout.ModeMapCentric,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("topology.svg", result.Artifacts[pipeline.FormatSVG], 0o644)
//
// # Supporting Packages
//
// [config] loads the TOML configuration, [errors] carries error codes that
// map to HTTP statuses, [observability] exposes pipeline and session hooks
// with a Prometheus implementation, and [buildinfo] reports the version.
//
// [client]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/client
// [topology]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/topology
// [graph]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/graph
// [layout]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/layout
// [canvas]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/canvas
// [render]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/cache
// [config]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/config
// [errors]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/errors
// [observability]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/beepf/topoconsole/pkg/buildinfo
package pkg
