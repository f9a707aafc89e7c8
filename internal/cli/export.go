package cli

import (
	"fmt"
	"os"

	"github.com/Flyrell/gatepass/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = LeafCommand{
	Use:   "export",
	Short: "Write groups and members to an XLSX roster",
	Roles: adminRoles,
	StrFlags: []StringFlag{
		{Name: "out", Usage: "output file (default gatepass-roster-<date>.xlsx)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		return runExport(cmd, a, out)
	},
}.Build()

func runExport(cmd *cobra.Command, a *App, out string) error {
	if out == "" {
		out = export.FileName("roster", a.Now(), "xlsx")
	}

	groups, err := a.Client().Groups(cmd.Context())
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.Roster(f, groups); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("roster of %d groups written to %s", len(groups), Primary(out))))
	return nil
}
