package cli

import (
	"strings"

	"github.com/Flyrell/gatepass/internal/session"
	"github.com/spf13/cobra"
)

// rolesAnnotation lists the roles allowed to run a command, comma separated.
const rolesAnnotation = "gatepass/roles"

// BoolFlag defines a boolean flag for a command.
type BoolFlag struct {
	Name    string
	Usage   string
	Default bool
}

// StringFlag defines a string flag for a command.
type StringFlag struct {
	Name    string
	Usage   string
	Default string
}

// LeafCommand defines a command that executes logic.
// Every leaf command file must declare one of these and call Build().
type LeafCommand struct {
	Use       string
	Short     string
	Aliases   []string
	Example   string
	Args      cobra.PositionalArgs
	BoolFlags []BoolFlag
	StrFlags  []StringFlag
	// Roles restricts the command to logged-in users with one of these roles.
	// Empty means no session is needed.
	Roles []session.Role
	RunE  func(cmd *cobra.Command, args []string) error
}

// Build creates a cobra.Command with all flags registered.
func (lc LeafCommand) Build() *cobra.Command {
	cmd := &cobra.Command{
		Use:     lc.Use,
		Short:   lc.Short,
		Aliases: lc.Aliases,
		Example: lc.Example,
		Args:    lc.Args,
		RunE:    lc.RunE,
	}
	for _, f := range lc.BoolFlags {
		cmd.Flags().Bool(f.Name, f.Default, f.Usage)
	}
	for _, f := range lc.StrFlags {
		cmd.Flags().String(f.Name, f.Default, f.Usage)
	}
	if len(lc.Roles) > 0 {
		names := make([]string, len(lc.Roles))
		for i, r := range lc.Roles {
			names[i] = string(r)
		}
		cmd.Annotations = map[string]string{rolesAnnotation: strings.Join(names, ",")}
	}
	return cmd
}

// requiredRoles returns the roles a command is restricted to, and whether it
// needs a session at all.
func requiredRoles(cmd *cobra.Command) ([]session.Role, bool) {
	raw, ok := cmd.Annotations[rolesAnnotation]
	if !ok {
		return nil, false
	}
	var roles []session.Role
	for _, name := range strings.Split(raw, ",") {
		roles = append(roles, session.Role(name))
	}
	return roles, true
}

// GroupCommand defines a command that only holds subcommands.
type GroupCommand struct {
	Use         string
	Short       string
	Aliases     []string
	Subcommands []*cobra.Command
}

// Build creates a cobra.Command with all subcommands registered.
func (gc GroupCommand) Build() *cobra.Command {
	cmd := &cobra.Command{
		Use:     gc.Use,
		Short:   gc.Short,
		Aliases: gc.Aliases,
	}
	for _, sub := range gc.Subcommands {
		cmd.AddCommand(sub)
	}
	return cmd
}
