package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pedigree.

  bash:        source <(pedigree completion bash)
  zsh:         pedigree completion zsh > "${fpath[1]}/_pedigree"
  fish:        pedigree completion fish | source
  powershell:  pedigree completion powershell | Out-String | Invoke-Expression

Completion covers subcommands, flags and the individual IDs of the current
document.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(c.Out, true)
			case "zsh":
				return root.GenZshCompletion(c.Out)
			case "fish":
				return root.GenFishCompletion(c.Out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(c.Out)
			}
		},
	}
}

// completeIDs completes individual IDs from the current document.
func (c *CLI) completeIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	p, _, err := c.readRaw(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var ids []string
	for _, ind := range p.Individuals() {
		if ind.Name != "" {
			ids = append(ids, ind.ID+"\t"+ind.Name)
			continue
		}
		ids = append(ids, ind.ID)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
