package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// completionCmd generates shell completion scripts for devtools.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for devtools.

To install completions:

  Bash (Linux):
    devtools completion bash | sudo tee /etc/bash_completion.d/devtools > /dev/null

  Bash (macOS with Homebrew):
    devtools completion bash > $(brew --prefix)/etc/bash_completion.d/devtools

  Zsh:
    devtools completion zsh > "${fpath[1]}/_devtools"
    # or
    devtools completion zsh > ~/.zsh/completions/_devtools

  Fish:
    devtools completion fish > ~/.config/fish/completions/devtools.fish

  PowerShell:
    devtools completion powershell > devtools.ps1
    # Then add ". devtools.ps1" to your PowerShell profile`,
	DisableFlagsInUseLine: true,
	ValidArgs:             Shells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GenCompletion(cmd.OutOrStdout(), args[0])
	},
}

// Shells are the shells GenCompletion supports.
var Shells = []string{"bash", "zsh", "fish", "powershell"}

// GenCompletion writes the completion script for shell to w. The release
// scripts use it to ship pre-generated completions.
func GenCompletion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(w, true)
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unsupported shell: %s", shell)
	}
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
