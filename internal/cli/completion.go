package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
)

var validShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = newCompletionCmd()

func newCompletionCmd() *cobra.Command {
	cmd := LeafCommand{
		Use:   "completion [SHELL]",
		Short: "Print the shell completion script for gatepass",
		Example: "  gatepass completion zsh > \"${fpath[1]}/_gatepass\"\n" +
			"  source <(gatepass completion bash)",
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := detectShell(os.Getenv("SHELL"))
			if len(args) > 0 {
				shell = args[0]
			}
			return runCompletion(cmd, shell)
		},
	}.Build()
	cmd.ValidArgs = validShells
	return cmd
}

// detectShell maps a $SHELL path to one of validShells, or "" when unknown.
func detectShell(path string) string {
	name := filepath.Base(path)
	if name == "pwsh" {
		name = "powershell"
	}
	if slices.Contains(validShells, name) {
		return name
	}
	return ""
}

func runCompletion(cmd *cobra.Command, shell string) error {
	root := cmd.Root()
	out := cmd.OutOrStdout()

	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(out)
	case "":
		return fmt.Errorf("could not detect the shell from $SHELL; pass one of: bash, zsh, fish, powershell")
	default:
		return fmt.Errorf("unsupported shell: %s (valid: bash, zsh, fish, powershell)", shell)
	}
}
