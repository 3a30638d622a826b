package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/stacklineage/pkg/io"
	"github.com/matzehuels/stacklineage/pkg/pipeline"
)

// graphExts are the graph file extensions offered when completing a path.
var graphExts = []string{"json", "toml"}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for stacklineage.

Besides commands and flags, the scripts complete graph files and the node
IDs inside them, e.g. "stacklineage view lineage.json --focus job:<TAB>".

  bash:        source <(stacklineage completion bash)
  zsh:         stacklineage completion zsh > "${fpath[1]}/_stacklineage"
  fish:        stacklineage completion fish | source
  powershell:  stacklineage completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeGraphFile completes the single <graph> argument of view, explore
// and serve.
func completeGraphFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return graphExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeLineageArgs completes "lineage <graph> <node>": a graph file first,
// then the node IDs found in it.
func completeLineageArgs(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return graphExts, cobra.ShellCompDirectiveFilterFileExt
	case 1:
		return nodeCompletions(args[0], toComplete), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeFocus completes --focus from the graph named by the first argument.
func completeFocus(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nodeCompletions(args[0], toComplete), cobra.ShellCompDirectiveNoFileComp
}

var completeFormats = cobra.FixedCompletions(
	[]string{pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG},
	cobra.ShellCompDirectiveNoFileComp,
)

// nodeCompletions lists "id\tKIND name" for the nodes of the graph at path
// whose ID starts with prefix. An unreadable graph yields no candidates.
func nodeCompletions(path, prefix string) []string {
	g, err := pkgio.Import(path)
	if err != nil {
		return nil
	}
	var out []string
	for _, n := range g.Nodes {
		if !strings.HasPrefix(n.ID, prefix) {
			continue
		}
		out = append(out, fmt.Sprintf("%s\t%s %s", n.ID, n.Kind(), n.Payload.Name()))
	}
	return out
}
