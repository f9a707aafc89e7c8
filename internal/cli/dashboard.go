package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Flyrell/gatepass/internal/dashboard"
	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/metrics"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var dashboardCmd = LeafCommand{
	Use:   "dashboard",
	Short: "Live per-group access and entry counters",
	Roles: adminRoles,
	BoolFlags: []BoolFlag{
		{Name: "once", Usage: "print one snapshot and exit"},
	},
	StrFlags: []StringFlag{
		{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address, e.g. :9100"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		once, _ := cmd.Flags().GetBool("once")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		return runDashboard(cmd, a, once, metricsAddr, dashboardDeps{isTTY: isTerminal})
	},
}.Build()

// dashboardDeps bundles side-effects for testability.
type dashboardDeps struct {
	isTTY func(w io.Writer) bool
}

func runDashboard(cmd *cobra.Command, a *App, once bool, metricsAddr string, deps dashboardDeps) error {
	out := cmd.OutOrStdout()
	client := a.Client()

	// Non-TTY fallback: print one static snapshot
	if once || !deps.isTTY(out) {
		groups, err := client.Groups(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, renderDashboard(groups, dashView{lang: a.Lang(), cursor: -1, expandAll: true}))
		return err
	}

	return runDashboardTUI(cmd.Context(), out, a, client.Groups, metricsAddr)
}

func runDashboardTUI(ctx context.Context, out io.Writer, a *App, fetch dashboard.Fetcher, metricsAddr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var p *tea.Program
	poller := dashboard.New(
		func(ctx context.Context) ([]member.Group, error) {
			groups, err := fetch(ctx)
			if err != nil && ctx.Err() == nil {
				p.Send(pollErrMsg{err: err})
			}
			return groups, err
		},
		func(groups []member.Group) { p.Send(groupsMsg(groups)) },
		dashboard.WithInterval(a.Config.Dashboard.Interval),
		dashboard.WithMetrics(a.Metrics),
	)

	m := newDashboardModel(a.Lang(), a.Now)
	m.refresh = func() tea.Msg {
		if _, err := poller.Refresh(ctx); err != nil {
			return pollErrMsg{err: err}
		}
		return nil
	}
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(out), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	if metricsAddr != "" {
		g.Go(func() error {
			if err := metrics.Serve(gctx, metricsAddr, a.Metrics); err != nil {
				slog.Error("metrics listener failed", "addr", metricsAddr, "error", err)
			}
			return nil
		})
	}

	_, err := p.Run()
	cancel()
	_ = g.Wait()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
