package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gatekey/gatekey/internal/config"
)

// NewCompletionCommand creates the completion command
func NewCompletionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate a shell completion script for gatekey.

To load completions:

Bash:
  $ source <(gatekey completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ gatekey completion bash > /etc/bash_completion.d/gatekey
  # macOS:
  $ gatekey completion bash > $(brew --prefix)/etc/bash_completion.d/gatekey

Zsh:
  $ gatekey completion zsh > "${fpath[1]}/_gatekey"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ gatekey completion fish | source

  # To load completions for each session, execute once:
  $ gatekey completion fish > ~/.config/fish/completions/gatekey.fish

PowerShell:
  PS> gatekey completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
