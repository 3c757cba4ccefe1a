package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/perspectives/pkg/io"
	"github.com/matzehuels/perspectives/pkg/pipeline"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for perspectives. Besides commands and flags
it completes --format with the supported encodings and --background with
the known fills.

  $ source <(perspectives completion bash)
  $ perspectives completion zsh > "${fpath[1]}/_perspectives"
  $ perspectives completion fish | source`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
}

// registerRenderCompletions completes the render option flags of cmd that
// take a fixed set of values.
func registerRenderCompletions(cmd *cobra.Command) {
	if cmd.Flags().Lookup("format") != nil {
		cmd.RegisterFlagCompletionFunc("format", completeFormats)
	}
	if cmd.Flags().Lookup("background") != nil {
		cmd.RegisterFlagCompletionFunc("background", completeBackgrounds)
	}
}

func completeFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(io.Formats))
	for i, f := range io.Formats {
		names[i] = f.String()
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeBackgrounds(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return slices.Sorted(maps.Keys(pipeline.ValidBackgrounds)), cobra.ShellCompDirectiveNoFileComp
}
