package cli

import (
	"time"

	"github.com/Flyrell/gatepass/internal/member"
	tea "github.com/charmbracelet/bubbletea"
)

// groupsMsg carries a changed snapshot from the poller.
type groupsMsg []member.Group

// pollErrMsg reports a failed fetch. The last snapshot stays on screen.
type pollErrMsg struct{ err error }

type dashboardModel struct {
	lang     string
	now      func() time.Time
	refresh  tea.Cmd
	groups   []member.Group
	loaded   bool
	cursor   int
	expanded map[member.ID]bool
	err      error
	updated  time.Time
	width    int
}

func newDashboardModel(lang string, now func() time.Time) dashboardModel {
	return dashboardModel{
		lang:     lang,
		now:      now,
		expanded: make(map[member.ID]bool),
		width:    100,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return nil
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case groupsMsg:
		m.groups = msg
		m.loaded = true
		m.err = nil
		m.updated = m.now()
		if m.cursor >= len(m.groups) {
			m.cursor = max(len(m.groups)-1, 0)
		}
	case pollErrMsg:
		m.err = msg.err
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "down", "j":
			if m.cursor < len(m.groups)-1 {
				m.cursor++
			}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter", " ":
			if m.cursor < len(m.groups) {
				id := m.groups[m.cursor].ID
				m.expanded[id] = !m.expanded[id]
			}
		case "r":
			return m, m.refresh
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if !m.loaded && m.err == nil {
		return Silent(T(m.lang, msgLoading)) + "\n"
	}
	view := dashView{
		lang:     m.lang,
		cursor:   m.cursor,
		expanded: m.expanded,
		err:      m.err,
		updated:  m.updated,
		footer:   true,
	}
	return renderDashboard(m.groups, view)
}
