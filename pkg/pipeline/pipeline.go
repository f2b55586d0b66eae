// Package pipeline provides the fetch → layout → render pipeline behind the
// topoconsole CLI and server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: Read the program/map topology from the backend or a file
//  2. Layout: Compute node positions for the selected mode
//  3. Render: Produce output documents (SVG, JSON, HTML, DOT, PNG, PDF)
//
// Each stage is cached through a [cache.Cache]. The fetch stage doubles as
// the last-known topology store that [Options.Offline] reads from.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, backend, pipeline.Options{
//	    Mode:    layout.ModeForce,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// Console sessions reuse only the layout stage:
//
//	surface := canvas.New(win, canvas.WithLayoutFunc(runner.LayoutFunc(ctx)))
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beepf/topoconsole/pkg/cache"
	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/topology"
)

// =============================================================================
// Formats
// =============================================================================

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatHTML = "html"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatJSON, FormatHTML, FormatDOT, FormatPNG, FormatPDF}

// DefaultPNGScale is the rsvg-convert zoom used for PNG output.
const DefaultPNGScale = 2.0

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Layout
	Mode   layout.Mode `json:"mode,omitempty"`
	Width  float64     `json:"width,omitempty"`
	Height float64     `json:"height,omitempty"`
	Seed   uint64      `json:"seed,omitempty"`

	// Render
	Formats     []string `json:"formats,omitempty"`
	Legend      bool     `json:"legend,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"` // DOT labels carry kind and refs
	Title       string   `json:"title,omitempty"`    // HTML document title

	// Fetch
	Refresh bool `json:"refresh,omitempty"` // bypass layout and artifact caches
	Offline bool `json:"offline,omitempty"` // use the last-known topology only

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Mode == "" {
		o.Mode = layout.DefaultMode
	} else {
		m, err := layout.ParseMode(string(o.Mode))
		if err != nil {
			return err
		}
		o.Mode = m
	}
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if o.Width == 0 {
		o.Width = layout.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = layout.DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = layout.DefaultSeed
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Mode:   string(o.Mode),
		Width:  o.Width,
		Height: o.Height,
		Seed:   o.Seed,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG:
		k.Legend, k.Interactive = o.Legend, o.Interactive
	case FormatPNG, FormatPDF:
		k.Legend = o.Legend
	case FormatDOT:
		k.Detailed = o.Detailed
	case FormatHTML:
		k.Title = o.Title
	}
	return k
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	Topology topology.Topology
	Graph    graph.Graph

	// GraphHash is the content hash of Graph, used in layout cache keys.
	GraphHash string

	Positions layout.Positions
	Frame     canvas.Frame

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	HiddenEdges int
	FetchTime   time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	TopologyHit bool // topology came from the last-known store (offline)
	LayoutHit   bool
	RenderHit   bool // every artifact came from the cache
}
