package cli

import (
	"github.com/Flyrell/gatepass/internal/session"
	"github.com/spf13/cobra"
)

var adminRoles = []session.Role{session.RoleAdmin}

var adminCmd = GroupCommand{
	Use:   "admin",
	Short: "Dashboard, members, QR codes and exports (admin role)",
	Subcommands: []*cobra.Command{
		dashboardCmd,
		membersCmd,
		memberCmd,
		qrCmd,
		exportCmd,
	},
}.Build()
