package cli

import (
	"fmt"
	"strings"

	"github.com/Flyrell/gatepass/internal/access"
	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/session"
	"github.com/spf13/cobra"
)

var responsableRoles = []session.Role{session.RoleGroupResponsible}

var responsableCmd = GroupCommand{
	Use:     "responsable",
	Short:   "Grant tomorrow's access to your groups (group responsible role)",
	Aliases: []string{"resp"},
	Subcommands: []*cobra.Command{
		responsableGroupsCmd,
		grantCmd,
	},
}.Build()

var responsableGroupsCmd = LeafCommand{
	Use:   "groups",
	Short: "List your groups and their members' access",
	Roles: responsableRoles,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return runResponsableGroups(cmd, a)
	},
}.Build()

var grantCmd = LeafCommand{
	Use:   "grant [GROUP_ID]",
	Short: "Choose which members of a group may enter on the next access day",
	Args:  cobra.MaximumNArgs(1),
	Roles: responsableRoles,
	StrFlags: []StringFlag{
		{Name: "grant", Usage: "comma-separated member ids to grant (skips the picker)"},
		{Name: "revoke", Usage: "comma-separated member ids to revoke (skips the picker)"},
	},
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "skip confirmation prompt"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		var groupID member.ID
		if len(args) == 1 {
			groupID = member.ID(args[0])
		}
		grantFlag, _ := cmd.Flags().GetString("grant")
		revokeFlag, _ := cmd.Flags().GetString("revoke")
		yes, _ := cmd.Flags().GetBool("yes")

		kit := NewPromptKit()
		kit.Confirm = ResolveConfirmFunc(yes)
		return runGrant(cmd, a, groupID, parseIDList(grantFlag), parseIDList(revokeFlag), kit)
	},
}.Build()

func newPlanner(a *App) *access.Planner {
	return access.NewPlanner(a.Client(), a.Session.ID,
		access.WithRecurrence(a.Config.Access.Days),
		access.WithClock(a.Now),
	)
}

func runResponsableGroups(cmd *cobra.Command, a *App) error {
	p := newPlanner(a)
	if err := p.Load(cmd.Context()); err != nil {
		return err
	}

	groups := p.Groups()
	w := cmd.OutOrStdout()
	if len(groups) == 0 {
		_, _ = fmt.Fprintf(w, "%s\n", Silent(T(a.Lang(), msgNoGroups)))
		return nil
	}
	for _, g := range groups {
		granted := len(member.WithAccess(g.Members))
		_, _ = fmt.Fprintf(w, "%s %s\n", titleStyle.Render(g.Name),
			Silent(fmt.Sprintf("#%s  %d %s, %s %d", g.ID, len(g.Members), T(a.Lang(), msgMembers), T(a.Lang(), msgAccessPermits), granted)))
		for _, m := range g.Members {
			mark := "[ ]"
			if m.HasAccessToday {
				mark = Success("[x]")
			}
			_, _ = fmt.Fprintf(w, "  %s %s %s\n", mark, m.Name, Silent("#"+m.ID.String()))
		}
	}
	return nil
}

func runGrant(cmd *cobra.Command, a *App, groupID member.ID, grant, revoke []member.ID, kit PromptKit) error {
	lang := a.Lang()
	p := newPlanner(a)
	if err := p.Load(cmd.Context()); err != nil {
		return err
	}

	g, err := pickGroup(p.Groups(), groupID, kit.Select)
	if err != nil {
		return err
	}

	if len(grant) > 0 || len(revoke) > 0 {
		for _, id := range grant {
			if err := p.Set(g.ID, id, true); err != nil {
				return err
			}
		}
		for _, id := range revoke {
			if err := p.Set(g.ID, id, false); err != nil {
				return err
			}
		}
	} else {
		if err := pickMembers(p, g, kit.MultiSelect, lang); err != nil {
			return err
		}
	}

	prompt := fmt.Sprintf("%s (%s, %d changed)", T(lang, msgConfirm), g.Name, p.Pending(g.ID))
	confirmed, err := kit.Confirm(prompt)
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("aborted")
	}

	sum, err := p.Submit(cmd.Context(), g.ID)
	if err != nil {
		return err
	}
	printGrantSummary(cmd, sum, lang)
	return nil
}

func pickGroup(groups []member.Group, id member.ID, sel SelectFunc) (member.Group, error) {
	if len(groups) == 0 {
		return member.Group{}, fmt.Errorf("no groups are assigned to you")
	}
	if !id.IsZero() {
		g := member.FindGroup(groups, id)
		if g == nil {
			return member.Group{}, fmt.Errorf("%w: %s", access.ErrUnknownGroup, id)
		}
		return *g, nil
	}
	if len(groups) == 1 {
		return groups[0], nil
	}

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = fmt.Sprintf("%s (%d)", g.Name, len(g.Members))
	}
	idx, err := sel("Group", names)
	if err != nil {
		return member.Group{}, err
	}
	if idx < 0 || idx >= len(groups) {
		return member.Group{}, fmt.Errorf("invalid group selection %d", idx)
	}
	return groups[idx], nil
}

// pickMembers shows the group's members with their current access checked
// and stages whatever the user leaves checked.
func pickMembers(p *access.Planner, g member.Group, multi MultiSelectFunc, lang string) error {
	names := make([]string, len(g.Members))
	var selected []int
	for i, m := range g.Members {
		names[i] = m.Name
		if m.HasAccessToday {
			selected = append(selected, i)
		}
	}

	chosen, err := multi(fmt.Sprintf("%s: %s", T(lang, msgAccessPermits), g.Name), names, selected)
	if err != nil {
		return err
	}
	on := make(map[int]bool, len(chosen))
	for _, i := range chosen {
		on[i] = true
	}
	for i, m := range g.Members {
		if err := p.Set(g.ID, m.ID, on[i]); err != nil {
			return err
		}
	}
	return nil
}

func printGrantSummary(cmd *cobra.Command, sum access.Summary, lang string) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s\n", Success(fmt.Sprintf(T(lang, msgGroupUpdated), sum.GroupName)))
	if len(sum.Granted) == 0 {
		_, _ = fmt.Fprintf(w, "%s\n", Silent(fmt.Sprintf(T(lang, msgNoneTomorrow), sum.DateLabel())))
		return
	}
	_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf(T(lang, msgGrantedTomorrow), sum.DateLabel())))
	for _, m := range sum.Granted {
		_, _ = fmt.Fprintf(w, "  - %s\n", m.Name)
	}
}

// parseIDList splits "1, 2,3" into member ids, skipping blanks.
func parseIDList(s string) []member.ID {
	var ids []member.ID
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, member.ID(part))
		}
	}
	return ids
}
