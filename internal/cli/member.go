package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Flyrell/gatepass/internal/export"
	"github.com/Flyrell/gatepass/internal/member"
	"github.com/spf13/cobra"
)

var memberCmd = GroupCommand{
	Use:   "member",
	Short: "Add, remove or inspect one member",
	Subcommands: []*cobra.Command{
		memberAddCmd,
		memberRemoveCmd,
		memberShowCmd,
	},
}.Build()

var memberAddCmd = LeafCommand{
	Use:   "add GROUP_ID NAME",
	Short: "Add a member to a group",
	Args:  cobra.MinimumNArgs(2),
	Roles: adminRoles,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return runMemberAdd(cmd, a, member.ID(args[0]), strings.Join(args[1:], " "))
	},
}.Build()

var memberRemoveCmd = LeafCommand{
	Use:   "remove MEMBER_ID",
	Short: "Delete a member",
	Args:  cobra.ExactArgs(1),
	Roles: adminRoles,
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "skip confirmation prompt"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		return runMemberRemove(cmd, a, member.ID(args[0]), ResolveConfirmFunc(yes))
	},
}.Build()

var memberShowCmd = LeafCommand{
	Use:   "show MEMBER_ID",
	Short: "Show a member and optionally save their QR code",
	Args:  cobra.ExactArgs(1),
	Roles: adminRoles,
	StrFlags: []StringFlag{
		{Name: "save", Usage: "write the member's QR code PNG to this file"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		save, _ := cmd.Flags().GetString("save")
		return runMemberShow(cmd, a, member.ID(args[0]), save)
	},
}.Build()

func runMemberAdd(cmd *cobra.Command, a *App, groupID member.ID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("member name must not be empty")
	}
	m, err := a.Client().AddMember(cmd.Context(), groupID, name)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("member '%s' added to group %s (id %s)", Primary(m.Name), groupID, m.ID)))
	return nil
}

func runMemberRemove(cmd *cobra.Command, a *App, id member.ID, confirm ConfirmFunc) error {
	confirmed, err := confirm(fmt.Sprintf("Delete member %s?", id))
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("aborted")
	}

	if err := a.Client().DeleteMember(cmd.Context(), id); err != nil {
		return fmt.Errorf("%s: %w", T(a.Lang(), msgDeleteFailed), err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("member %s removed", Primary(id.String()))))
	return nil
}

func runMemberShow(cmd *cobra.Command, a *App, id member.ID, savePath string) error {
	m, err := a.Client().Member(cmd.Context(), id)
	if err != nil {
		return err
	}

	lang := a.Lang()
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s %s\n", Primary(m.Name), Silent("#"+m.ID.String()))
	_, _ = fmt.Fprintf(w, "%s %s\n", T(lang, msgGroupNumber), m.GroupID)
	_, _ = fmt.Fprintf(w, "%s: %t\n", T(lang, msgHasAccess), m.HasAccessToday)
	_, _ = fmt.Fprintf(w, "%s: %t\n", T(lang, msgEntered), m.EnteredToday)
	_, _ = fmt.Fprintf(w, "QR payload: %s\n", export.QRPayload(m.ID))

	if savePath == "" {
		return nil
	}
	png, ok := export.DecodeQRImage(m.QRCode)
	if !ok {
		return fmt.Errorf("member %s has no stored QR image; run 'gatepass admin qr generate' first", m.ID)
	}
	if err := os.WriteFile(savePath, png, 0644); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%s\n", Text("QR code saved to "+Primary(savePath)))
	return nil
}
