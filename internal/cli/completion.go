package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for icebergviz.

To load completions:

Bash:
  $ source <(icebergviz completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ icebergviz completion bash > /etc/bash_completion.d/icebergviz
  # macOS:
  $ icebergviz completion bash > $(brew --prefix)/etc/bash_completion.d/icebergviz

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ icebergviz completion zsh > "${fpath[1]}/_icebergviz"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ icebergviz completion fish | source

  # To load completions for each session, execute once:
  $ icebergviz completion fish > ~/.config/fish/completions/icebergviz.fish

PowerShell:
  PS> icebergviz completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> icebergviz completion powershell > icebergviz.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := c.Out
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(w)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}
