package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/metrics"
	"github.com/Flyrell/gatepass/internal/scan"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var scanCmd = LeafCommand{
	Use:   "scan",
	Short: "Open the scanner screen and admit members",
	Roles: scannerRoles,
	StrFlags: []StringFlag{
		{Name: "device", Usage: "QR reader device or FIFO, '-' for stdin (default from config)"},
		{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address, e.g. :9100"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		device, _ := cmd.Flags().GetString("device")
		if !cmd.Flags().Changed("device") {
			device = a.Config.Scanner.Device
		}
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		return runScan(cmd, a, device, metricsAddr, scanDeps{isTTY: isTerminal, openDevice: openDevice})
	},
}.Build()

// scanDeps bundles side-effects for testability.
type scanDeps struct {
	isTTY      func(w io.Writer) bool
	openDevice func(path string) (io.ReadCloser, error)
}

func openDevice(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scan.ErrCameraUnavailable, err)
	}
	return f, nil
}

func runScan(cmd *cobra.Command, a *App, device, metricsAddr string, deps scanDeps) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	wf, closeJournal, err := a.newWorkflow(ctx, a.Client())
	if err != nil {
		return err
	}
	defer func() { _ = closeJournal() }()

	if metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, metricsAddr, a.Metrics); err != nil {
				slog.Error("metrics listener failed", "addr", metricsAddr, "error", err)
			}
		}()
	}

	out := cmd.OutOrStdout()

	// Non-TTY fallback, and stdin readers which would fight the screen for input
	if !deps.isTTY(out) || device == "-" {
		in := cmd.InOrStdin()
		if device != "" && device != "-" {
			rc, err := deps.openDevice(device)
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()
			in = rc
		}
		return runScanLines(ctx, out, wf, in, a.Lang())
	}

	var (
		camera scan.Camera
		manual *scan.ChannelCamera
	)
	if device == "" {
		manual = scan.NewChannelCamera()
		camera = manual
	} else {
		camera = scan.NewDeviceCamera(device)
	}
	st := scan.NewStation(camera, wf)
	defer func() { _ = st.Stop() }()

	p := tea.NewProgram(newScanModel(ctx, a.Lang(), st, manual), tea.WithAltScreen(), tea.WithOutput(out), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// scanTally counts outcomes of a line-mode session.
type scanTally map[string]int

func (t scanTally) String() string {
	return fmt.Sprintf("%d granted, %d already entered, %d denied, %d not found, %d invalid, %d failed",
		t[metrics.ScanGranted], t[metrics.ScanDuplicate], t[metrics.ScanDenied],
		t[metrics.ScanNotFound], t[metrics.ScanMalformed], t[metrics.ScanError])
}

// runScanLines resolves one payload per input line and prints a result line
// for each until EOF.
func runScanLines(ctx context.Context, w io.Writer, r scan.Resolver, in io.Reader, lang string) error {
	tally := scanTally{}
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload := strings.TrimSpace(sc.Text())
		if payload == "" {
			continue
		}
		res, err := r.Resolve(ctx, payload)
		tally[scan.Outcome(res, err)]++
		_, _ = fmt.Fprintln(w, scanLine(res, err, lang))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%s\n", Silent(tally.String()))
	return nil
}

// scanLine is the one-line form of a scan result.
func scanLine(res member.ScanResult, err error, lang string) string {
	if err != nil {
		return Error("✗ " + Localize(err, lang))
	}
	who := fmt.Sprintf("%s #%s", res.Name, res.MemberID)
	switch {
	case !res.Access:
		return Error("✗ "+T(lang, msgDenied)) + "  " + who
	case res.AlreadyEntered:
		return Warning("! "+T(lang, msgAlreadyEntered)) + "  " + who
	}
	return Success("✓ "+T(lang, msgGranted)) + "  " + who
}

// scanCard is the large result shown on the scanner screen.
func scanCard(res member.ScanResult, lang string) string {
	var banner, note string
	switch {
	case !res.Access:
		banner = deniedBanner.Render(T(lang, msgDenied))
	case res.AlreadyEntered:
		banner = repeatBanner.Render(T(lang, msgAlreadyEntered))
	default:
		banner = grantedBanner.Render(T(lang, msgGranted))
		note = T(lang, msgFirstEntry)
	}

	var b strings.Builder
	b.WriteString(banner)
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render(res.Name))
	b.WriteString(" ")
	b.WriteString(Silent("#" + res.MemberID.String()))
	b.WriteString("\n")
	if !res.GroupID.IsZero() {
		b.WriteString(fmt.Sprintf("%s %s\n", T(lang, msgGroupNumber), res.GroupID))
	}
	if note != "" {
		b.WriteString(Silent(note))
		b.WriteString("\n")
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}
