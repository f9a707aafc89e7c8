package cli

import (
	"fmt"

	"github.com/Flyrell/gatepass/internal/config"
	"github.com/spf13/cobra"
)

var configSetCmd = LeafCommand{
	Use:     "set KEY VALUE",
	Short:   "Change a setting in the config file",
	Args:    cobra.ExactArgs(2),
	Example: "  gatepass config set backend.url https://access.example.org\n  gatepass config set access.days \"every friday and saturday\"",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return runConfigSet(cmd, a.HomeDir, args[0], args[1])
	},
}.Build()

// runConfigSet edits the file on disk, not the effective config, so
// environment overrides are never persisted.
func runConfigSet(cmd *cobra.Command, homeDir, key, value string) error {
	cfg, err := config.ReadFile(homeDir)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Write(homeDir, cfg); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("%s set to %s", Info(key), Primary(value))))
	return nil
}
