package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Flyrell/gatepass/internal/journal"
	"github.com/Flyrell/gatepass/internal/metrics"
	"github.com/Flyrell/gatepass/internal/schedule"
	"github.com/spf13/cobra"
)

var historyCmd = LeafCommand{
	Use:   "history",
	Short: "Show the scans this station journaled for a day",
	Roles: scannerRoles,
	StrFlags: []StringFlag{
		{Name: "day", Usage: "day to show: today, yesterday, monday, 2025-03-12, 12/03/2025 (default today)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		day, _ := cmd.Flags().GetString("day")
		return runHistory(cmd, a.Config.Scanner.Journal, day, a.Now())
	},
}.Build()

func runHistory(cmd *cobra.Command, journalPath, dayFlag string, now time.Time) error {
	if journalPath == "" {
		return fmt.Errorf("scanner.journal is not configured")
	}

	day := now
	if strings.TrimSpace(dayFlag) != "" {
		d, err := schedule.ParseDay(dayFlag, now)
		if err != nil {
			return err
		}
		day = d
	}

	store, err := journal.Open(journalPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(cmd.Context(), day)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s\n", titleStyle.Render("Scans on "+schedule.FormatDay(day)))
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(w, "%s\n", Silent("no scans"))
		return nil
	}

	recorded := 0
	for _, e := range entries {
		who := e.Name
		if who == "" {
			who = e.Payload
		}
		line := fmt.Sprintf("%s  %-16s %-8s %s", e.At.Format("15:04:05"), e.Outcome, e.MemberID, who)
		switch e.Outcome {
		case metrics.ScanGranted:
			line = Success(line)
		case metrics.ScanDuplicate:
			line = Warning(line)
		case metrics.ScanDenied, metrics.ScanNotFound, metrics.ScanMalformed, metrics.ScanError:
			line = Error(line)
		}
		if e.Recorded {
			recorded++
		}
		_, _ = fmt.Fprintln(w, line)
	}
	_, _ = fmt.Fprintf(w, "%s\n", Silent(fmt.Sprintf("%d scans, %d entries recorded", len(entries), recorded)))
	return nil
}
