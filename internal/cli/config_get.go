package cli

import (
	"fmt"

	"github.com/Flyrell/gatepass/internal/config"
	"github.com/spf13/cobra"
)

var configShowCmd = LeafCommand{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return runConfigShow(cmd, a.HomeDir, a.Config)
	},
}.Build()

var configGetCmd = LeafCommand{
	Use:   "get KEY",
	Short: "Print one effective setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return runConfigGet(cmd, a.Config, args[0])
	},
}.Build()

func runConfigShow(cmd *cobra.Command, homeDir string, cfg *config.Config) error {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s\n", Silent("# "+config.Path(homeDir)))
	for _, key := range config.Keys() {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s = %s\n", Info(key), v)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, cfg *config.Config, key string) error {
	v, err := cfg.Get(key)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}
