package cli

import (
	"context"
	"testing"
	"time"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/session"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"login", "logout", "whoami", "config", "admin", "responsable", "scanner", "version", "completion"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestRoleGatedCommands(t *testing.T) {
	tests := []struct {
		path []string
		want []session.Role
	}{
		{[]string{"admin", "dashboard"}, adminRoles},
		{[]string{"admin", "members"}, adminRoles},
		{[]string{"admin", "member", "remove"}, adminRoles},
		{[]string{"admin", "qr", "export"}, adminRoles},
		{[]string{"admin", "export"}, adminRoles},
		{[]string{"responsable", "grant"}, responsableRoles},
		{[]string{"resp", "groups"}, responsableRoles},
		{[]string{"scanner", "scan"}, scannerRoles},
		{[]string{"scanner", "resolve"}, scannerRoles},
		{[]string{"scanner", "history"}, scannerRoles},
	}

	for _, tt := range tests {
		cmd, _, err := rootCmd.Find(tt.path)
		require.NoError(t, err, tt.path)
		roles, ok := requiredRoles(cmd)
		assert.True(t, ok, tt.path)
		assert.Equal(t, tt.want, roles, tt.path)
	}
}

func TestOpenCommandsNeedNoSession(t *testing.T) {
	for _, path := range [][]string{{"login"}, {"logout"}, {"whoami"}, {"config", "show"}, {"version"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err)
		_, ok := requiredRoles(cmd)
		assert.False(t, ok, path)
	}
}

func TestPrepareAppWithoutSession(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"admin", "members"})
	require.NoError(t, err)

	_, err = prepareApp(cmd, t.TempDir(), func() time.Time { return testNow })

	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestPrepareAppWrongRole(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, session.Save(home, &session.Session{ID: "5", Name: "Gate", Role: session.RoleScanner}))
	cmd, _, err := rootCmd.Find([]string{"admin", "members"})
	require.NoError(t, err)

	_, err = prepareApp(cmd, home, func() time.Time { return testNow })

	assert.ErrorIs(t, err, session.ErrForbidden)
}

func TestPrepareAppLoadsSession(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, session.Save(home, &session.Session{ID: "5", Name: "Gate", Role: session.RoleScanner}))
	cmd, _, err := rootCmd.Find([]string{"scanner", "scan"})
	require.NoError(t, err)

	a, err := prepareApp(cmd, home, func() time.Time { return testNow })

	require.NoError(t, err)
	require.NotNil(t, a.Session)
	assert.Equal(t, member.ID("5"), a.Session.ID)
	assert.NotNil(t, a.Metrics)
	assert.Equal(t, "en", a.Lang())
}

func TestPrepareAppOpenCommand(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"version"})
	require.NoError(t, err)

	a, err := prepareApp(cmd, t.TempDir(), func() time.Time { return testNow })

	require.NoError(t, err)
	assert.Nil(t, a.Session)
}

func TestAppFromUninitialized(t *testing.T) {
	_, err := appFrom(&cobra.Command{})
	assert.Error(t, err)
}

func TestEnvLang(t *testing.T) {
	t.Setenv("GATEPASS_LANG", "ar")
	assert.Equal(t, "ar", envLang())

	t.Setenv("GATEPASS_LANG", "fr")
	assert.Equal(t, "en", envLang())
}

func TestAppClientCarriesToken(t *testing.T) {
	srv := newFakeBackend(t)
	a := newTestApp(t, srv.URL)
	loginAs(t, a, "1", "Admin", session.RoleAdmin, "tok-1")

	_, err := a.Client().GenerateAllQR(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", srv.LastAuthorization())
}
