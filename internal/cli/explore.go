package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/beepf/topoconsole/pkg/pipeline"
)

// exploreCommand creates the terminal topology browser.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		input   string
		offline bool
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse the topology in the terminal",
		Long: `Browse the topology in the terminal.

The node list follows the console canvas: moving the cursor hovers a node,
enter selects it and lists its connections, esc clears the selection, and
the number keys switch between the five layouts. Positions shown are canvas
coordinates for the terminal size.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Offline: offline, Logger: c.Logger}
			lf.apply(c.cfg, &opts)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context())
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer runner.Close()

			src, err := c.newSource(input)
			if err != nil {
				return err
			}

			// The TUI owns the terminal; keep log lines out of it.
			level := c.Logger.GetLevel()
			c.SetLogLevel(LogError)
			defer c.SetLogLevel(level)

			model := NewExploreModel(cmd.Context(), runner, src, opts)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "read the topology from a JSON file instead of the backend")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the last-known topology")
	lf.register(cmd)

	return cmd
}
