package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Flyrell/gatepass/internal/backend"
	"github.com/Flyrell/gatepass/internal/config"
	"github.com/Flyrell/gatepass/internal/journal"
	"github.com/Flyrell/gatepass/internal/metrics"
	"github.com/Flyrell/gatepass/internal/scan"
	"github.com/Flyrell/gatepass/internal/session"
	"github.com/spf13/cobra"
)

// App is the per-invocation state prepared before a command runs. The
// session is loaded once here and handed to whichever surface runs.
type App struct {
	HomeDir string
	Config  *config.Config
	Session *session.Session
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type appKey struct{}

func withApp(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(cmd *cobra.Command) (*App, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New("gatepass is not initialized")
	}
	a, ok := ctx.Value(appKey{}).(*App)
	if !ok {
		return nil, errors.New("gatepass is not initialized")
	}
	return a, nil
}

// prepareApp loads .env, the config file and, for role-restricted commands,
// the session.
func prepareApp(cmd *cobra.Command, homeDir string, now func() time.Time) (*App, error) {
	if err := config.LoadEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(homeDir)
	if err != nil {
		return nil, err
	}
	activeLang = cfg.Lang

	a := &App{
		HomeDir: homeDir,
		Config:  cfg,
		Metrics: metrics.New(),
		Now:     now,
	}
	if roles, ok := requiredRoles(cmd); ok {
		s, err := session.Authorize(homeDir, now(), roles...)
		if err != nil {
			return nil, err
		}
		a.Session = s
	}
	return a, nil
}

// Lang is the configured message language.
func (a *App) Lang() string {
	if a.Config == nil {
		return "en"
	}
	return a.Config.Lang
}

// Client returns a backend client carrying the session's token.
func (a *App) Client() *backend.Client {
	opts := []backend.Option{
		backend.WithTimeout(a.Config.Backend.Timeout),
		backend.WithMetrics(a.Metrics),
	}
	if a.Session != nil && a.Session.Token != "" {
		opts = append(opts, backend.WithToken(a.Session.Token))
	}
	return backend.New(a.Config.Backend.URL, opts...)
}

// newWorkflow builds a scan workflow journaling to the configured store.
// Entries already recorded today are restored so a restart does not record
// them twice.
func (a *App) newWorkflow(ctx context.Context, b scan.Backend) (*scan.Workflow, func() error, error) {
	opts := []scan.Option{
		scan.WithMetrics(a.Metrics),
		scan.WithClock(a.Now),
		scan.WithStation(stationName()),
	}

	path := a.Config.Scanner.Journal
	if path == "" {
		return scan.NewWorkflow(b, opts...), func() error { return nil }, nil
	}

	store, err := journal.Open(path)
	if err != nil {
		return nil, nil, err
	}
	wf := scan.NewWorkflow(b, append(opts, scan.WithJournal(store))...)

	recorded, err := store.Recorded(ctx, a.Now())
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("restoring today's entries: %w", err)
	}
	wf.MarkRecorded(recorded...)
	return wf, store.Close, nil
}

func stationName() string {
	host, err := os.Hostname()
	if err != nil {
		return "gatepass"
	}
	return host
}
