package cli

import (
	"fmt"

	"github.com/Flyrell/gatepass/internal/config"
	"github.com/spf13/cobra"
)

var configResetCmd = LeafCommand{
	Use:   "reset",
	Short: "Restore the default configuration",
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "skip confirmation prompt"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		return runConfigReset(cmd, a.HomeDir, ResolveConfirmFunc(yes))
	},
}.Build()

func runConfigReset(cmd *cobra.Command, homeDir string, confirm ConfirmFunc) error {
	confirmed, err := confirm(fmt.Sprintf("Overwrite %s with defaults?", config.Path(homeDir)))
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("aborted")
	}

	if err := config.Write(homeDir, config.Default(homeDir)); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text("config reset to defaults"))
	return nil
}
