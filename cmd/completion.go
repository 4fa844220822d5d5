package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd generates shell completion scripts.
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate completion scripts for your shell.

  # Bash (add to ~/.bashrc)
  eval "$(relmap completion bash)"

  # Zsh (add to ~/.zshrc)
  eval "$(relmap completion zsh)"

  # Fish
  relmap completion fish | source

  # PowerShell
  relmap completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return root.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return root.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// personCompletionFunc completes person names from the saved map.
func (a *app) personCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if a.cfg == nil {
		if err := a.setup(); err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	}
	ws, err := a.openWorkspace(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer ws.Close()

	var completions []string
	for _, p := range ws.store.Snapshot().Persons {
		desc := p.Phone
		if desc == "" {
			desc = p.Note
		}
		completions = append(completions, p.Name+"\t"+desc)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
