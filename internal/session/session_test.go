package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSaveAndLoad(t *testing.T) {
	home := t.TempDir()
	in := &Session{ID: "7", Name: "Resp", Role: RoleGroupResponsible, Token: "tok"}

	require.NoError(t, Save(home, in))

	out, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	info, err := os.Stat(Path(home))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveRejectsEmptyID(t *testing.T) {
	assert.Error(t, Save(t.TempDir(), &Session{Name: "x"}))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestLoadInvalidJSONRemovesFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(Dir(home), 0700))
	require.NoError(t, os.WriteFile(Path(home), []byte("{not json"), 0600))

	_, err := Load(home)

	assert.ErrorIs(t, err, ErrNoSession)
	_, statErr := os.Stat(Path(home))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadWithoutIDRemovesFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(Dir(home), 0700))
	require.NoError(t, os.WriteFile(Path(home), []byte(`{"name":"x","role":"admin"}`), 0600))

	_, err := Load(home)

	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoFileExists(t, Path(home))
}

func TestLoadNumericIDAndLegacyRole(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(Dir(home), 0700))
	require.NoError(t, os.WriteFile(Path(home), []byte(`{"id":12,"name":"R","role":"responsable_group"}`), 0600))

	s, err := Load(home)

	require.NoError(t, err)
	assert.Equal(t, "12", s.ID.String())
	assert.Equal(t, RoleGroupResponsible, s.Role)
}

func TestClear(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, Save(home, &Session{ID: "1", Role: RoleAdmin}))

	require.NoError(t, Clear(home))
	assert.NoFileExists(t, filepath.Join(home, ".gatepass", "session.json"))

	// second clear is a no-op
	assert.NoError(t, Clear(home))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"ADMIN", RoleAdmin},
		{"group_responsible", RoleGroupResponsible},
		{"responsable_group", RoleGroupResponsible},
		{"scanner", RoleScanner},
		{"guest", Role("guest")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.in))
		})
	}
}

func TestRequire(t *testing.T) {
	s := &Session{ID: "1", Role: RoleScanner}

	assert.NoError(t, Require(s, RoleScanner))
	assert.NoError(t, Require(s, RoleAdmin, RoleScanner))
	assert.NoError(t, Require(s))
	assert.ErrorIs(t, Require(s, RoleAdmin), ErrForbidden)
	assert.ErrorIs(t, Require(nil, RoleAdmin), ErrNoSession)
}

func TestValidTokenExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := &Session{ID: "1", Token: signedToken(t, now.Add(time.Hour))}
	stale := &Session{ID: "1", Token: signedToken(t, now.Add(-time.Hour))}
	opaque := &Session{ID: "1", Token: "not-a-jwt"}
	none := &Session{ID: "1"}

	assert.NoError(t, fresh.Valid(now))
	assert.ErrorIs(t, stale.Valid(now), ErrSessionExpired)
	assert.NoError(t, opaque.Valid(now))
	assert.NoError(t, none.Valid(now))

	exp, ok := fresh.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour).Unix(), exp.Unix())
}

func TestAuthorize(t *testing.T) {
	home := t.TempDir()
	now := time.Now()

	_, err := Authorize(home, now, RoleAdmin)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, Save(home, &Session{ID: "1", Role: RoleScanner}))
	_, err = Authorize(home, now, RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	s, err := Authorize(home, now, RoleScanner)
	require.NoError(t, err)
	assert.Equal(t, RoleScanner, s.Role)

	require.NoError(t, Save(home, &Session{ID: "1", Role: RoleScanner, Token: signedToken(t, now.Add(-time.Minute))}))
	_, err = Authorize(home, now, RoleScanner)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestHomeCommand(t *testing.T) {
	assert.Equal(t, "admin dashboard", HomeCommand(RoleAdmin))
	assert.Equal(t, "responsable grant", HomeCommand(RoleGroupResponsible))
	assert.Equal(t, "scanner scan", HomeCommand(RoleScanner))
	assert.Equal(t, "", HomeCommand(Role("guest")))
}
