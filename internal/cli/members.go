package cli

import (
	"fmt"
	"io"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/spf13/cobra"
)

var membersCmd = LeafCommand{
	Use:   "members",
	Short: "List every member",
	Roles: adminRoles,
	StrFlags: []StringFlag{
		{Name: "group", Usage: "only list members of this group id"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		group, _ := cmd.Flags().GetString("group")
		return runMembers(cmd, a, member.ID(group))
	},
}.Build()

func runMembers(cmd *cobra.Command, a *App, group member.ID) error {
	members, err := a.Client().Members(cmd.Context())
	if err != nil {
		return err
	}
	if !group.IsZero() {
		filtered := members[:0]
		for _, m := range members {
			if m.GroupID == group {
				filtered = append(filtered, m)
			}
		}
		members = filtered
	}
	return printMemberTable(cmd.OutOrStdout(), members, a.Lang())
}

func printMemberTable(w io.Writer, members []member.Member, lang string) error {
	if len(members) == 0 {
		_, err := fmt.Fprintf(w, "%s\n", Silent("no members"))
		return err
	}
	_, _ = fmt.Fprintf(w, "%s\n", titleStyle.Render(fmt.Sprintf("%-8s %s %-8s %s", "ID", padRight("Name", groupColWidth), "Group", "Status")))
	for _, m := range members {
		status := "-"
		switch {
		case m.HasAccessToday && m.EnteredToday:
			status = T(lang, msgHasAccess) + ", " + T(lang, msgEntered)
		case m.HasAccessToday:
			status = T(lang, msgHasAccess)
		}
		if _, err := fmt.Fprintf(w, "%-8s %s %-8s %s\n", m.ID, padRight(m.Name, groupColWidth), m.GroupID, status); err != nil {
			return err
		}
	}
	return nil
}
