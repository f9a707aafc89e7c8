package cli

import (
	"github.com/Flyrell/gatepass/internal/session"
	"github.com/spf13/cobra"
)

var scannerRoles = []session.Role{session.RoleScanner}

var scannerCmd = GroupCommand{
	Use:   "scanner",
	Short: "Scan member QR codes at the door (scanner role)",
	Subcommands: []*cobra.Command{
		scanCmd,
		resolveCmd,
		historyCmd,
	},
}.Build()
