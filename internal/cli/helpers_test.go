package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Flyrell/gatepass/internal/backend/backendtest"
	"github.com/Flyrell/gatepass/internal/config"
	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/metrics"
	"github.com/Flyrell/gatepass/internal/session"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// wednesday evening; the next daily access day is 13/03/2025
var testNow = time.Date(2025, 3, 12, 20, 0, 0, 0, time.UTC)

// newFakeBackend starts a backend with two groups owned by user 7 and one by
// user 8.
func newFakeBackend(t *testing.T) *backendtest.Server {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)

	srv.AddGroup(backendtest.Group{ID: 10, Name: "Scouts", OwnerID: 7})
	srv.AddGroup(backendtest.Group{ID: 11, Name: "Choir", OwnerID: 7})
	srv.AddGroup(backendtest.Group{ID: 12, Name: "Band", OwnerID: 8})
	srv.AddMember(backendtest.Member{ID: 1, Name: "Sara", GroupID: 10})
	srv.AddMember(backendtest.Member{ID: 2, Name: "Omar", GroupID: 10, Access: true})
	srv.AddMember(backendtest.Member{ID: 3, Name: "Lina", GroupID: 11, Access: true, Entered: true})
	srv.AddMember(backendtest.Member{ID: 4, Name: "Karim", GroupID: 12})
	srv.AddUser(backendtest.User{ID: 7, Name: "Nour", Role: "responsable_group", Email: "nour@example.org", Password: "secret", Token: "tok-7"})
	srv.AddUser(backendtest.User{ID: 1, Name: "Admin", Role: "admin", Email: "admin@example.org", Password: "admin", Token: "tok-1"})
	return srv
}

// newTestApp returns an App pointed at backendURL with a temp home and no
// journal.
func newTestApp(t *testing.T, backendURL string) *App {
	t.Helper()
	home := t.TempDir()
	cfg := config.Default(home)
	cfg.Backend.URL = backendURL
	cfg.Backend.Timeout = 5 * time.Second
	cfg.Scanner.Journal = ""
	return &App{
		HomeDir: home,
		Config:  cfg,
		Metrics: metrics.New(),
		Now:     func() time.Time { return testNow },
	}
}

// loginAs stores and attaches a session.
func loginAs(t *testing.T, a *App, id, name string, role session.Role, token string) {
	t.Helper()
	s := &session.Session{ID: member.ID(id), Name: name, Role: role, Token: token}
	require.NoError(t, session.Save(a.HomeDir, s))
	a.Session = s
}

// newTestCmd returns a command carrying a in its context and writing to the
// returned buffer.
func newTestCmd(a *App) (*cobra.Command, *bytes.Buffer) {
	out := new(bytes.Buffer)
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetContext(withApp(context.Background(), a))
	return cmd, out
}

// mockPrompt returns a PromptFunc that feeds pre-determined responses.
func mockPrompt(responses ...string) PromptFunc {
	i := 0
	return func(_ string) (string, error) {
		if i >= len(responses) {
			return "", fmt.Errorf("no more mock responses")
		}
		resp := responses[i]
		i++
		return resp, nil
	}
}

// mockConfirm returns a ConfirmFunc that returns a pre-determined answer.
func mockConfirm(answer bool) ConfirmFunc {
	return func(_ string) (bool, error) {
		return answer, nil
	}
}

// recordingConfirm answers yes and keeps the prompt it was shown.
func recordingConfirm(prompt *string) ConfirmFunc {
	return func(p string) (bool, error) {
		*prompt = p
		return true, nil
	}
}

// mockSelect returns a SelectFunc that always picks idx.
func mockSelect(idx int) SelectFunc {
	return func(_ string, _ []string) (int, error) {
		return idx, nil
	}
}

// mockMultiSelect returns a MultiSelectFunc answering chosen and recording
// what it was offered.
type mockMultiSelect struct {
	chosen   []int
	options  []string
	selected []int
}

func (m *mockMultiSelect) fn() MultiSelectFunc {
	return func(_ string, options []string, selected []int) ([]int, error) {
		m.options = options
		m.selected = selected
		return m.chosen, nil
	}
}

func failingSelect() SelectFunc {
	return func(string, []string) (int, error) {
		return 0, fmt.Errorf("select should not be called")
	}
}
