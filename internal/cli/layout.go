package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/graph"
	"github.com/beepf/topoconsole/pkg/layout"
	"github.com/beepf/topoconsole/pkg/pipeline"
)

// layoutCommand creates the layout command and its subcommands. Without a
// subcommand it lists the modes.
func (c *CLI) layoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "List layout modes, show their parameters, or compute positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayoutList(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(c.layoutListCommand())
	cmd.AddCommand(c.layoutShowCommand())
	cmd.AddCommand(c.layoutComputeCommand())

	return cmd
}

func (c *CLI) layoutListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the layout modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayoutList(cmd.OutOrStdout())
		},
	}
}

func (c *CLI) runLayoutList(out io.Writer) error {
	def, _ := c.cfg.Mode()

	rows := make([][]string, 0, len(layout.Modes))
	for _, m := range layout.Modes {
		marker := ""
		if m == def {
			marker = "default"
		}
		rows = append(rows, []string{string(m), m.Label(), string(layout.ConfigFor(m).Engine), marker})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Mode", "Label", "Engine", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleHighlight
			}
			if col == 3 {
				return StyleSuccess
			}
			return lipgloss.NewStyle()
		})

	_, err := fmt.Fprintln(out, t.Render())
	return err
}

func (c *CLI) layoutShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "show <mode>",
		Short:     "Print the parameters of a layout mode as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: modeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := layout.ParseMode(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), layout.ConfigFor(mode))
		},
	}
}

// layoutComputeOpts holds the flags for "layout compute".
type layoutComputeOpts struct {
	input    string
	output   string
	graphIn  string
	graphOut string
	offline  bool
	refresh  bool
	layout   layoutFlags
}

func (c *CLI) layoutComputeCommand() *cobra.Command {
	var opts layoutComputeOpts

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute node positions for the topology",
		Long: `Compute node positions for the topology and print them as JSON.

Positions are node centers keyed by node ID (prog-<id>, map-<id>), before
any viewport transform. Results are cached per graph, mode, size and seed.

--graph-out saves the render graph the positions were computed for; --graph
lays out such a file again without contacting the backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayoutCompute(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "read the topology from a JSON file instead of the backend")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.graphIn, "graph", "", "lay out a render graph file instead of fetching the topology")
	cmd.Flags().StringVar(&opts.graphOut, "graph-out", "", "also write the render graph to this file")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "use the last-known topology")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute, bypassing the layout cache")
	opts.layout.register(cmd)
	cmd.MarkFlagsMutuallyExclusive("graph", "input")
	cmd.MarkFlagsMutuallyExclusive("graph", "offline")

	return cmd
}

func (c *CLI) runLayoutCompute(ctx context.Context, out io.Writer, opts layoutComputeOpts) error {
	popts := pipeline.Options{Offline: opts.offline, Logger: c.Logger}
	opts.layout.apply(c.cfg, &popts)
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer runner.Close()

	var g graph.Graph
	if opts.graphIn != "" {
		g, err = readGraph(opts.graphIn)
	} else {
		g, err = c.fetchGraph(ctx, runner, opts.input, popts)
	}
	if err != nil {
		return err
	}
	if opts.graphOut != "" {
		var buf bytes.Buffer
		if err := graph.WriteGraph(g, &buf); err != nil {
			return err
		}
		if err := writeFile(opts.graphOut, buf.Bytes()); err != nil {
			return err
		}
	}

	lopts := layout.Options{Width: popts.Width, Height: popts.Height, Seed: popts.Seed}
	if opts.refresh {
		// Layout reads the cache; a refresh recomputes and overwrites it.
		_ = runner.Cache.Delete(ctx, runner.Keyer.LayoutKey(pipeline.GraphHash(g), popts.LayoutKeyOpts()))
	}
	prog := newProgress(c.Logger)
	pos, hit := runner.Layout(ctx, g, popts.Mode, lopts)
	prog.done("computed layout", "mode", popts.Mode, "nodes", len(pos), "cached", hit)

	if opts.output == "" {
		return writeJSON(out, pos)
	}
	data, err := json.MarshalIndent(pos, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFile(opts.output, append(data, '\n')); err != nil {
		return err
	}
	printSuccess("Layout complete")
	printFile(opts.output)
	printStats(g.NodeCount(), g.EdgeCount(), 0, hit)
	return nil
}

func (c *CLI) fetchGraph(ctx context.Context, runner *pipeline.Runner, input string, popts pipeline.Options) (graph.Graph, error) {
	src, err := c.newSource(input)
	if err != nil {
		return graph.Graph{}, err
	}
	t, _, err := runner.Fetch(ctx, src, popts)
	if err != nil {
		return graph.Graph{}, err
	}
	return graph.Transform(t), nil
}

// readGraph loads a render graph written by --graph-out.
func readGraph(path string) (graph.Graph, error) {
	if err := errors.ValidatePath(path); err != nil {
		return graph.Graph{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read graph %s", path)
	}
	g, err := graph.UnmarshalGraph(data)
	if err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeDecode, err, "decode graph %s", path)
	}
	return g, nil
}

// modeNames returns the layout modes for shell completion.
func modeNames() []string {
	names := make([]string, len(layout.Modes))
	for i, m := range layout.Modes {
		names[i] = string(m)
	}
	return names
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
