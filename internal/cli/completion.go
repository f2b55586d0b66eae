package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beepf/topoconsole/pkg/pipeline"
)

// completionShells lists the shells "completion" can generate for.
var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// genCompletion writes the completion script for shell.
func genCompletion(root *cobra.Command, shell string, w io.Writer, descriptions bool) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, descriptions)
	case "zsh":
		if descriptions {
			return root.GenZshCompletion(w)
		}
		return root.GenZshCompletionNoDesc(w)
	case "fish":
		return root.GenFishCompletion(w, descriptions)
	default:
		if descriptions {
			return root.GenPowerShellCompletionWithDesc(w)
		}
		return root.GenPowerShellCompletion(w)
	}
}

func (c *CLI) completionCommand() *cobra.Command {
	var noDesc bool

	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: `Print the completion script for bash, zsh, fish or powershell.

Besides commands and flags, the scripts complete layout modes (--layout,
"layout show") and output formats (--format, comma-separated).

  source <(topoconsole completion bash)
  topoconsole completion zsh > "${fpath[1]}/_topoconsole"
  topoconsole completion fish > ~/.config/fish/completions/topoconsole.fish
  topoconsole completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return genCompletion(cmd.Root(), args[0], cmd.OutOrStdout(), !noDesc)
		},
	}
	cmd.Flags().BoolVar(&noDesc, "no-descriptions", false, "leave descriptions out of the completions")

	return cmd
}

// registerValueCompletions attaches mode and format completion to every
// command in the tree that has a --layout or --format flag.
func registerValueCompletions(cmd *cobra.Command) {
	if cmd.Flags().Lookup("layout") != nil {
		_ = cmd.RegisterFlagCompletionFunc("layout", completeModes)
	}
	if cmd.Flags().Lookup("format") != nil {
		_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	}
	for _, sub := range cmd.Commands() {
		registerValueCompletions(sub)
	}
}

// completeModes completes a layout mode name.
func completeModes(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, m := range modeNames() {
		if strings.HasPrefix(m, strings.ToLower(toComplete)) {
			out = append(out, m)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes the last entry of a comma-separated format list,
// skipping formats already given.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	given := make(map[string]bool)
	for _, f := range strings.Split(prefix, ",") {
		given[strings.ToLower(strings.TrimSpace(f))] = true
	}

	var out []string
	for _, f := range pipeline.Formats {
		if !given[f] && strings.HasPrefix(f, strings.ToLower(last)) {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
