package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beepf/topoconsole/pkg/cache"
	"github.com/beepf/topoconsole/pkg/canvas"
	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/observability"
	"github.com/beepf/topoconsole/pkg/topology"
)

// Runner executes the pipeline with caching.
//
// The Runner holds no per-run state. The CLI and every console session share
// one Runner; concurrent use with different options is safe.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// means cache.DefaultKeyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs fetch → layout → render for src.
func (r *Runner) Execute(ctx context.Context, src Source, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	// Stage 1: Fetch
	fetchStart := time.Now()
	t, hit, err := r.Fetch(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	result.Topology = t
	result.Stats.FetchTime = time.Since(fetchStart)
	result.CacheInfo.TopologyHit = hit

	g := graph.Transform(t)
	result.Graph = g
	result.GraphHash = GraphHash(g)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	r.Logger.Info("fetched topology",
		"source", src.Name(),
		"programs", len(t.ProgNodes),
		"maps", len(t.MapNodes),
		"edges", len(t.Edges),
		"offline", hit,
		"duration", result.Stats.FetchTime)
	if report := topology.Check(t); !report.OK() {
		r.Logger.Warn("topology has dangling references", "report", report.String())
	}

	// Stage 2: Layout, driven through a Surface so the frame matches what
	// the console shows for the same size.
	layoutStart := time.Now()
	win := canvas.NewWindow(opts.Width, opts.Height)
	layoutFn := func(g graph.Graph, mode layout.Mode, lo layout.Options) layout.Positions {
		pos, hit := r.layout(ctx, g, mode, lo, opts.Refresh)
		result.Positions = pos
		result.CacheInfo.LayoutHit = hit
		return pos
	}
	surface := canvas.New(win,
		canvas.WithLogger(opts.Logger),
		canvas.WithMode(opts.Mode),
		canvas.WithSeed(opts.Seed),
		canvas.WithLayoutFunc(layoutFn),
	)
	surface.LoadGraph(g, false)
	result.Frame = surface.Snapshot()
	surface.Destroy()
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.HiddenEdges = result.Frame.HiddenEdges

	r.Logger.Info("computed layout",
		"mode", opts.Mode,
		"nodes", len(result.Frame.Nodes),
		"hidden_edges", result.Frame.HiddenEdges,
		"cached", result.CacheInfo.LayoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Frame, g, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Fetch
// =============================================================================

// Fetch reads the topology from src and stores it as the last-known copy.
// With opts.Offline the last-known copy is returned instead, and the bool
// result is true.
func (r *Runner) Fetch(ctx context.Context, src Source, opts Options) (topology.Topology, bool, error) {
	key := r.Keyer.TopologyKey(src.Name())
	hooks := observability.Pipeline()

	if opts.Offline {
		var t topology.Topology
		ok, err := cache.GetJSON(ctx, r.Cache, key, &t)
		if err != nil {
			return topology.Topology{}, false, errors.Wrap(errors.ErrCodeInternal, err, "read cached topology")
		}
		if !ok {
			observability.Cache().OnCacheMiss(ctx, cache.StageTopology)
			return topology.Topology{}, false, errors.New(errors.ErrCodeInvalidInput,
				"no cached topology for %s; run once without --offline", src.Name())
		}
		observability.Cache().OnCacheHit(ctx, cache.StageTopology)
		return t.Normalized(), true, nil
	}

	hooks.OnFetchStart(ctx, src.Name())
	start := time.Now()
	t, err := src.GetTopology(ctx)
	hooks.OnFetchComplete(ctx, src.Name(), len(t.ProgNodes)+len(t.MapNodes), len(t.Edges), time.Since(start), err)
	if err != nil {
		return topology.Topology{}, false, err
	}

	r.store(ctx, cache.StageTopology, key, t, cache.TTLTopology)
	return t, false, nil
}

// =============================================================================
// Layout
// =============================================================================

// Layout computes positions for g in mode, reading and filling the cache.
// The bool result reports a cache hit.
func (r *Runner) Layout(ctx context.Context, g graph.Graph, mode layout.Mode, opts layout.Options) (layout.Positions, bool) {
	return r.layout(ctx, g, mode, opts, false)
}

// LayoutFunc adapts the cached layout stage for a canvas.Surface.
func (r *Runner) LayoutFunc(ctx context.Context) canvas.LayoutFunc {
	return func(g graph.Graph, mode layout.Mode, opts layout.Options) layout.Positions {
		pos, _ := r.layout(ctx, g, mode, opts, false)
		return pos
	}
}

func (r *Runner) layout(ctx context.Context, g graph.Graph, mode layout.Mode, opts layout.Options, refresh bool) (layout.Positions, bool) {
	key := r.Keyer.LayoutKey(GraphHash(g), cache.LayoutKeyOpts{
		Mode:   string(mode),
		Width:  opts.Width,
		Height: opts.Height,
		Seed:   opts.Seed,
	})

	if !refresh {
		var pos layout.Positions
		if ok, err := cache.GetJSON(ctx, r.Cache, key, &pos); err == nil && ok && covers(pos, g) {
			observability.Cache().OnCacheHit(ctx, cache.StageLayout)
			return pos, true
		}
		observability.Cache().OnCacheMiss(ctx, cache.StageLayout)
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, string(mode), len(g.Nodes))
	start := time.Now()
	pos := layout.ComputeMode(g, mode, opts)
	hooks.OnLayoutComplete(ctx, string(mode), time.Since(start), nil)

	r.store(ctx, cache.StageLayout, key, pos, cache.TTLLayout)
	return pos, false
}

// covers reports whether pos has an entry for every node of g.
func covers(pos layout.Positions, g graph.Graph) bool {
	for _, n := range g.Nodes {
		if _, ok := pos[n.ID]; !ok {
			return false
		}
	}
	return true
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo renders the requested formats, serving them from the
// cache when every format is present.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, f canvas.Frame, g graph.Graph, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	frameHash := FrameHash(f)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format)))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, cache.StageArtifact)
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, cache.StageArtifact)
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err := Render(ctx, f, g, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Debug("cache write failed", "stage", cache.StageArtifact, "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, cache.StageArtifact, len(data))
	}
	return artifacts, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) store(ctx context.Context, stage, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Debug("cache encode failed", "stage", stage, "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "stage", stage, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, stage, len(data))
}

// =============================================================================
// Hashes
// =============================================================================

// GraphHash returns the content hash of g.
func GraphHash(g graph.Graph) string {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// FrameHash returns the content hash of f, ignoring its instance ID.
func FrameHash(f canvas.Frame) string {
	f.InstanceID = ""
	data, err := json.Marshal(f)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
