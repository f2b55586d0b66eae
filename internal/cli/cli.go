// Package cli implements the topoconsole command-line interface.
//
// The commands share one configuration, loaded from the TOML file named by
// --config (or the per-user default) and overridden by persistent flags:
//
//   - serve: run the console server
//   - render: fetch, lay out and write the topology as SVG, JSON, HTML, DOT, PNG or PDF
//   - explore: browse the topology in the terminal
//   - layout: list layout modes, show their parameters, compute positions
//   - config: show, locate or create the config file
//   - cache: locate or clear the pipeline cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/beepf/topoconsole/pkg/buildinfo"
	"github.com/beepf/topoconsole/pkg/cache"
	"github.com/beepf/topoconsole/pkg/client"
	"github.com/beepf/topoconsole/pkg/config"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and completion.
const appName = "topoconsole"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Persistent flags.
	configPath   string
	backendURL   string
	cacheBackend string
	noCache      bool
	verbose      bool

	cfg config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Topoconsole visualizes eBPF program/map topologies",
		Long: `Topoconsole shows which eBPF programs use which maps. It fetches the
topology from a backend agent, lays it out in one of five modes and serves
it as an interactive console, renders it to files, or browses it in the
terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/topoconsole/config.toml)")
	flags.StringVar(&c.backendURL, "backend", "", "backend base URL (overrides backend.base_url)")
	flags.StringVar(&c.cacheBackend, "cache", "", "cache backend: "+strings.Join(cache.Backends, ", "))
	flags.BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())
	registerValueCompletions(root)

	return root
}

// loadConfig reads the config file and applies the persistent flags.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.backendURL != "" {
		cfg.Backend.BaseURL = c.backendURL
	}
	if c.cacheBackend != "" {
		cfg.Cache.Backend = c.cacheBackend
	}
	if c.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "backend", cfg.Backend.BaseURL, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner and Source Factories
// =============================================================================

// newRunner creates a pipeline runner on the configured cache. Layouts and
// artifacts are scoped to the build version.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	store, err := cache.Open(ctx, c.cfg.CacheOptions())
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version)
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newSource reads from input when set and from the backend otherwise.
func (c *CLI) newSource(input string) (pipeline.Source, error) {
	if input != "" {
		return pipeline.FileSource{Path: input}, nil
	}
	opts := append(c.cfg.ClientOptions(), client.WithLogger(c.Logger))
	return client.New(c.cfg.Backend.BaseURL, opts...)
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the view flags shared by render, explore and layout.
type layoutFlags struct {
	mode   string
	width  float64
	height float64
	seed   uint64
}

// register adds the flags. Unset flags fall back to the config in apply.
func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "layout", "l", "", "layout mode: hierarchical, force, map-centric, radial, grid (default from config)")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height (default from config)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed for force layouts (default from config)")
}

// apply fills opts from the flags, falling back to the config.
func (f layoutFlags) apply(cfg config.Config, opts *pipeline.Options) {
	opts.Mode = layout.Mode(f.mode)
	if f.mode == "" {
		opts.Mode = layout.Mode(cfg.Layout.DefaultMode)
	}
	opts.Width, opts.Height = cfg.Layout.Width, cfg.Layout.Height
	if f.width > 0 {
		opts.Width = f.width
	}
	if f.height > 0 {
		opts.Height = f.height
	}
	opts.Seed = cfg.Layout.Seed
	if f.seed != 0 {
		opts.Seed = f.seed
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
