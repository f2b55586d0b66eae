package cli

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/beepf/topoconsole/internal/server"
	"github.com/beepf/topoconsole/pkg/client"
	"github.com/beepf/topoconsole/pkg/config"
	"github.com/beepf/topoconsole/pkg/observability"
	"github.com/beepf/topoconsole/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	listen  string
	refresh time.Duration
	input   string
	layout  layoutFlags
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive topology console",
		Long: `Serve the topology console over HTTP.

Each browser page opens a websocket session with its own canvas. The page
sends pointer and keyboard events; the server answers with rendered frames.
The JSON and SVG API under /api and Prometheus metrics under /metrics are
served alongside.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("refresh") {
				opts.refresh = -1
			}
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (default from config, "+config.DefaultListen+")")
	cmd.Flags().DurationVar(&opts.refresh, "refresh", 0, "re-fetch interval for open sessions; 0 disables")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "serve a topology JSON file instead of the backend")
	opts.layout.register(cmd)

	return cmd
}

// serverConfig merges the flags into the configured server settings. A
// negative refresh keeps the configured interval.
func (c *CLI) serverConfig(opts serveOpts) (server.Config, error) {
	cfg := server.Config{
		Listen:          c.cfg.Server.Listen,
		AllowedOrigins:  c.cfg.Server.AllowedOrigins,
		RefreshInterval: c.cfg.Server.RefreshInterval.Duration,
		RequestTimeout:  c.cfg.Server.RequestTimeout.Duration,
	}
	if opts.listen != "" {
		cfg.Listen = opts.listen
	}
	if opts.refresh >= 0 {
		cfg.RefreshInterval = opts.refresh
	}

	var view pipeline.Options
	opts.layout.apply(c.cfg, &view)
	if err := view.ValidateAndSetDefaults(); err != nil {
		return server.Config{}, err
	}
	cfg.Mode, cfg.Width, cfg.Height, cfg.Seed = view.Mode, view.Width, view.Height, view.Seed
	return cfg, nil
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.serverConfig(opts)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer runner.Close()

	src, err := c.newSource(opts.input)
	if err != nil {
		return err
	}
	if backend, ok := src.(*client.Client); ok {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := backend.Ping(pingCtx); err != nil {
			printWarning("Backend %s is not reachable yet: %v", backend.BaseURL(), err)
		}
		cancel()
	}

	observability.NewPrometheus(prometheus.DefaultRegisterer).Install()
	defer observability.Reset()

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}

	printSuccess("Console ready")
	printLink("Console", consoleURL(ln.Addr()))
	printKeyValue("Backend", src.Name())
	printKeyValue("Layout", string(cfg.Mode))
	if cfg.RefreshInterval > 0 {
		printKeyValue("Refresh", cfg.RefreshInterval.String())
	}
	printNewline()

	srv := server.New(cfg, runner, src, server.WithLogger(c.Logger))
	return srv.Serve(ctx, ln)
}

// consoleURL turns a listen address into a browsable URL.
func consoleURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return "http://" + host + ":" + port + "/"
}
