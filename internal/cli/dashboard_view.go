package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/charmbracelet/lipgloss"
)

const groupColWidth = 24

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// dashView holds the presentation state for renderDashboard.
type dashView struct {
	lang      string
	cursor    int // -1 for no selection
	expanded  map[member.ID]bool
	expandAll bool
	err       error
	updated   time.Time
	footer    bool
}

// renderDashboard draws the totals, one line per group and, for expanded
// groups, their members sorted entered+access first, then access only.
func renderDashboard(groups []member.Group, v dashView) string {
	var b strings.Builder
	lang := v.lang

	b.WriteString(titleStyle.Render(T(lang, msgDashboardTitle)))
	b.WriteString("\n")

	access, entered := member.Totals(groups)
	fmt.Fprintf(&b, "%s: %s   %s: %s\n\n",
		T(lang, msgTotalAccess), Primary(fmt.Sprint(access)),
		T(lang, msgActualEntries), Primary(fmt.Sprint(entered)),
	)

	if len(groups) == 0 {
		b.WriteString(Silent(T(lang, msgNoGroups)))
		b.WriteString("\n")
	}

	for i, g := range groups {
		line := fmt.Sprintf("%s  %s %-4d %s %-4d %s %d/%d",
			padRight(g.Name, groupColWidth),
			T(lang, msgMembers), g.MembersCount,
			T(lang, msgAccessCount), g.AccessToday,
			T(lang, msgEnteredCount), g.Entered, g.AccessToday,
		)
		if i == v.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")

		if v.expandAll || v.expanded[g.ID] {
			for _, m := range member.SortForDisplay(g.Members) {
				b.WriteString("    ")
				b.WriteString(memberLine(m, lang))
				b.WriteString("\n")
			}
		}
	}

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(Error(fmt.Sprintf("%s: %s", T(lang, msgFetchGroupsFailed), Localize(v.err, lang))))
		b.WriteString("\n")
	}

	if v.footer {
		b.WriteString("\n")
		status := T(lang, msgDashboardKeys)
		if !v.updated.IsZero() {
			status += "  " + v.updated.Format("15:04:05")
		}
		b.WriteString(footerStyle.Render(status))
		b.WriteString("\n")
	}
	return b.String()
}

func memberLine(m member.Member, lang string) string {
	name := padRight(m.Name, groupColWidth)
	switch {
	case m.HasAccessToday && m.EnteredToday:
		return Success(name) + " " + Silent(T(lang, msgHasAccess)+", "+T(lang, msgEntered))
	case m.HasAccessToday:
		return Info(name) + " " + Silent(T(lang, msgHasAccess))
	}
	return Silent(name)
}

// padRight pads s with spaces to width display cells, truncating with an
// ellipsis when it is longer.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w > width {
		runes := []rune(s)
		for lipgloss.Width(string(runes)) > width-1 && len(runes) > 0 {
			runes = runes[:len(runes)-1]
		}
		return string(runes) + "…"
	}
	return s + strings.Repeat(" ", width-w)
}
