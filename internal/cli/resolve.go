package cli

import (
	"fmt"

	"github.com/Flyrell/gatepass/internal/scan"
	"github.com/spf13/cobra"
)

var resolveCmd = LeafCommand{
	Use:     "resolve PAYLOAD",
	Short:   "Resolve one QR payload without opening the scanner screen",
	Args:    cobra.ExactArgs(1),
	Roles:   scannerRoles,
	Example: "  gatepass scanner resolve '{\"id\":42}'\n  gatepass scanner resolve 42",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		wf, closeJournal, err := a.newWorkflow(cmd.Context(), a.Client())
		if err != nil {
			return err
		}
		defer func() { _ = closeJournal() }()
		return runResolve(cmd, wf, args[0], a.Lang())
	},
}.Build()

func runResolve(cmd *cobra.Command, r scan.Resolver, payload, lang string) error {
	res, err := r.Resolve(cmd.Context(), payload)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), scanCard(res, lang))
	return nil
}
