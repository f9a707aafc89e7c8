package cli

import (
	"fmt"
	"os"

	"github.com/Flyrell/gatepass/internal/export"
	"github.com/spf13/cobra"
)

var qrCmd = GroupCommand{
	Use:   "qr",
	Short: "Generate and print member QR codes",
	Subcommands: []*cobra.Command{
		qrGenerateCmd,
		qrExportCmd,
	},
}.Build()

var qrGenerateCmd = LeafCommand{
	Use:   "generate",
	Short: "Ask the backend to (re)generate every member's QR code",
	Roles: adminRoles,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return runQRGenerate(cmd, a)
	},
}.Build()

var qrExportCmd = LeafCommand{
	Use:   "export",
	Short: "Write a printable PDF sheet of member badges",
	Roles: adminRoles,
	StrFlags: []StringFlag{
		{Name: "out", Usage: "output file (default gatepass-badges-<date>.pdf)"},
		{Name: "title", Usage: "sheet title", Default: "Member badges"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		title, _ := cmd.Flags().GetString("title")
		return runQRExport(cmd, a, out, title)
	},
}.Build()

func runQRGenerate(cmd *cobra.Command, a *App) error {
	msg, err := a.Client().GenerateAllQR(cmd.Context())
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "QR codes generated"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(msg))
	return nil
}

func runQRExport(cmd *cobra.Command, a *App, out, title string) error {
	if out == "" {
		out = export.FileName("badges", a.Now(), "pdf")
	}

	data, err := export.Fetch(cmd.Context(), a.Client())
	if err != nil {
		return err
	}

	pdf, err := export.Badges(title, data.Members, data.GroupNames())
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, pdf, 0644); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("%d badges written to %s", len(data.Members), Primary(out))))
	return nil
}
