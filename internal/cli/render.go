package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beepf/topoconsole/pkg/pipeline"
)

// defaultOutputBase names output files when --output is not given.
const defaultOutputBase = "topology"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	input   string // topology JSON file; empty reads from the backend
	output  string // output file (single format), base path, or "-" for stdout
	formats string // comma-separated output formats
	layout  layoutFlags
	pipeline.Options
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the topology to SVG, JSON, HTML, DOT, PNG or PDF",
		Long: `Render the eBPF topology to one or more files.

The topology is fetched from the backend (or read from --input), laid out in
the selected mode and written in each requested format. With one format,
--output names the file; with several, it is the base path and each format
adds its extension. Use --output - to write a single format to stdout.

Fetched topologies are kept in the cache, so --offline can render the
last-known topology when the backend is unreachable.`,
		Example: `  topoconsole render -l force -f svg,html
  topoconsole render -i topology.json -f dot -o - | dot -Tpng > topo.png
  topoconsole render --offline -f png --legend`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "read the topology from a JSON file instead of the backend")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (multiple), or - for stdout")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): "+strings.Join(pipeline.Formats, ", ")+" (default svg)")
	opts.layout.register(cmd)
	cmd.Flags().BoolVar(&opts.Legend, "legend", false, "draw the program/map legend")
	cmd.Flags().BoolVar(&opts.Interactive, "interactive", false, "add hover styles to SVG output")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label DOT nodes with kind and reference count")
	cmd.Flags().StringVar(&opts.Title, "title", "", "HTML document title")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "render the last-known topology without contacting the backend")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute layout and outputs, bypassing the cache")

	return cmd
}

// runRender executes the pipeline and writes each artifact.
func (c *CLI) runRender(ctx context.Context, out io.Writer, opts *renderOpts) error {
	opts.Formats = parseFormats(opts.formats)
	opts.layout.apply(c.cfg, &opts.Options)
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	toStdout := opts.output == "-"
	if toStdout && len(opts.Formats) != 1 {
		return fmt.Errorf("--output - needs exactly one format, got %d", len(opts.Formats))
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

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", src.Name()))
	spinner.Start()
	result, err := runner.Execute(ctx, src, opts.Options)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done("rendered topology", "formats", strings.Join(opts.Formats, ","))

	if toStdout {
		_, err := out.Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	paths := outputPaths(opts.output, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeFile(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
	}

	if result.CacheInfo.TopologyHit {
		printWarning("Rendered the last-known topology (offline)")
	}
	printSuccess("Rendered %s layout", opts.Mode)
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	cached := result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.HiddenEdges, cached)
	printNewline()
	printNextStep("Explore interactively", appName+" serve")

	return nil
}

// outputPaths maps each format to its output file.
//
// A single format uses output as given (or topology.<format>). Several
// formats share output as a base path, minus any format extension.
func outputPaths(output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath strips a known format extension from output.
func basePath(output string) string {
	if output == "" {
		return defaultOutputBase
	}
	ext := filepath.Ext(output)
	if slices.Contains(pipeline.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
