package cli

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Flyrell/gatepass/internal/backend"
	"github.com/Flyrell/gatepass/internal/member"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGroups() []member.Group {
	return []member.Group{
		{
			ID: "10", Name: "Scouts", MembersCount: 3, AccessToday: 2, Entered: 1,
			Members: []member.Member{
				{ID: "1", Name: "Sara", GroupID: "10"},
				{ID: "2", Name: "Omar", GroupID: "10", HasAccessToday: true},
				{ID: "5", Name: "Hadi", GroupID: "10", HasAccessToday: true, EnteredToday: true},
			},
		},
		{ID: "11", Name: "Choir", MembersCount: 0},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestRenderDashboardTotalsAndGroups(t *testing.T) {
	out := renderDashboard(sampleGroups(), dashView{lang: "en", cursor: -1})

	assert.Contains(t, out, "Admin Dashboard")
	assert.Contains(t, out, "Total access granted: 2")
	assert.Contains(t, out, "Actual entries: 1")
	assert.Contains(t, out, "Scouts")
	assert.Contains(t, out, "Entered 1/2")
	assert.NotContains(t, out, "Sara")
}

func TestRenderDashboardExpandedOrder(t *testing.T) {
	out := renderDashboard(sampleGroups(), dashView{lang: "en", cursor: -1, expandAll: true})

	hadi := strings.Index(out, "Hadi")
	omar := strings.Index(out, "Omar")
	sara := strings.Index(out, "Sara")
	require.True(t, hadi > 0 && omar > 0 && sara > 0)
	assert.Less(t, hadi, omar)
	assert.Less(t, omar, sara)
	assert.Contains(t, out, "has access, entered")
}

func TestRenderDashboardEmptyAndError(t *testing.T) {
	out := renderDashboard(nil, dashView{lang: "en", cursor: -1, err: errors.New("boom")})

	assert.Contains(t, out, "No groups")
	assert.Contains(t, out, "Error fetching groups: boom")
}

func TestRenderDashboardArabic(t *testing.T) {
	out := renderDashboard(sampleGroups(), dashView{lang: "ar", cursor: -1})

	assert.Contains(t, out, "لوحة تحكم المسؤول")
	assert.Contains(t, out, "الدخول الفعلي")
}

func TestRenderDashboardFooter(t *testing.T) {
	out := renderDashboard(sampleGroups(), dashView{lang: "en", cursor: 0, footer: true, updated: testNow})

	assert.Contains(t, out, "r: refresh")
	assert.Contains(t, out, "20:00:00")
}

func TestRenderDashboardFooterArabic(t *testing.T) {
	out := renderDashboard(sampleGroups(), dashView{lang: "ar", cursor: 0, footer: true})

	assert.Contains(t, out, "r: تحديث")
	assert.NotContains(t, out, "refresh")
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "abc  ", padRight("abc", 5))
	assert.Equal(t, "abcde", padRight("abcde", 5))

	long := padRight("Scouts of the northern district", 10)
	assert.Equal(t, 10, lipgloss.Width(long))
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestDashboardModelLoading(t *testing.T) {
	m := newDashboardModel("en", func() time.Time { return testNow })

	assert.Contains(t, m.View(), "Loading...")
}

func TestDashboardModelReceivesGroups(t *testing.T) {
	m := newDashboardModel("en", func() time.Time { return testNow })

	next, cmd := m.Update(groupsMsg(sampleGroups()))
	m = next.(dashboardModel)

	assert.Nil(t, cmd)
	assert.True(t, m.loaded)
	assert.Equal(t, testNow, m.updated)
	assert.Contains(t, m.View(), "Scouts")
}

func TestDashboardModelNavigationAndExpand(t *testing.T) {
	m := newDashboardModel("en", func() time.Time { return testNow })
	next, _ := m.Update(groupsMsg(sampleGroups()))

	next, _ = next.Update(key("j"))
	next, _ = next.Update(key("down"))
	m = next.(dashboardModel)
	assert.Equal(t, 1, m.cursor, "cursor stops at the last group")

	next, _ = m.Update(key("k"))
	next, _ = next.Update(key("enter"))
	m = next.(dashboardModel)
	assert.Equal(t, 0, m.cursor)
	assert.True(t, m.expanded["10"])
	assert.Contains(t, m.View(), "Hadi")

	next, _ = m.Update(key(" "))
	m = next.(dashboardModel)
	assert.False(t, m.expanded["10"])
}

func TestDashboardModelCursorClampsOnShrink(t *testing.T) {
	m := newDashboardModel("en", func() time.Time { return testNow })
	next, _ := m.Update(groupsMsg(sampleGroups()))
	next, _ = next.Update(key("j"))

	next, _ = next.Update(groupsMsg(sampleGroups()[:1]))

	assert.Equal(t, 0, next.(dashboardModel).cursor)
}

func TestDashboardModelPollErrorKeepsSnapshot(t *testing.T) {
	m := newDashboardModel("en", func() time.Time { return testNow })
	next, _ := m.Update(groupsMsg(sampleGroups()))

	next, _ = next.Update(pollErrMsg{err: errors.New("timeout")})
	view := next.View()

	assert.Contains(t, view, "Scouts")
	assert.Contains(t, view, "Error fetching groups: timeout")

	next, _ = next.Update(groupsMsg(sampleGroups()))
	assert.NotContains(t, next.View(), "Error fetching groups")
}

func TestDashboardModelRefreshAndQuit(t *testing.T) {
	refreshed := false
	m := newDashboardModel("en", func() time.Time { return testNow })
	m.refresh = func() tea.Msg {
		refreshed = true
		return nil
	}

	_, cmd := m.Update(key("r"))
	require.NotNil(t, cmd)
	cmd()
	assert.True(t, refreshed)

	for _, k := range []string{"q", "esc", "ctrl+c"} {
		_, cmd := m.Update(key(k))
		assert.True(t, isQuit(cmd), k)
	}
}

func TestRunDashboardOnce(t *testing.T) {
	a, _ := newAdminApp(t)
	cmd, out := newTestCmd(a)
	tty := dashboardDeps{isTTY: func(io.Writer) bool { return true }}

	require.NoError(t, runDashboard(cmd, a, true, "", tty))

	assert.Contains(t, out.String(), "Total access granted: 2")
	assert.Contains(t, out.String(), "Actual entries: 1")
	assert.Contains(t, out.String(), "Band")
	assert.Contains(t, out.String(), "Lina")
}

func TestRunDashboardNonTTYFallsBackToSnapshot(t *testing.T) {
	a, _ := newAdminApp(t)
	cmd, out := newTestCmd(a)
	noTTY := dashboardDeps{isTTY: func(io.Writer) bool { return false }}

	require.NoError(t, runDashboard(cmd, a, false, "", noTTY))

	assert.Contains(t, out.String(), "Admin Dashboard")
}

func TestRunDashboardBackendDown(t *testing.T) {
	a, srv := newAdminApp(t)
	srv.Fail("GET /groups", 503, 1)
	cmd, _ := newTestCmd(a)

	err := runDashboard(cmd, a, true, "", dashboardDeps{isTTY: func(io.Writer) bool { return false }})

	assert.True(t, backend.IsNetwork(err))
}
