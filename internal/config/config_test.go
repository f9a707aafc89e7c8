package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BACKEND_URL", "GATEPASS_BACKEND_URL", "GATEPASS_TIMEOUT", "GATEPASS_LANG", "GATEPASS_SCANNER_DEVICE", "LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(Dir(home), 0755))
	require.NoError(t, os.WriteFile(Path(home), []byte(body), 0644))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	c, err := Load(home)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", c.Backend.URL)
	assert.Equal(t, 10*time.Second, c.Backend.Timeout)
	assert.Equal(t, time.Second, c.Dashboard.Interval)
	assert.Equal(t, "daily", c.Access.Days)
	assert.Equal(t, "en", c.Lang)
	assert.Equal(t, filepath.Join(home, ".gatepass", "scans.db"), c.Scanner.Journal)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeConfig(t, home, `
backend:
  url: https://gate.example.org
  timeout: 3s
dashboard:
  interval: 2s
access:
  days: weekdays
lang: ar
log:
  level: debug
`)

	c, err := Load(home)

	require.NoError(t, err)
	assert.Equal(t, "https://gate.example.org", c.Backend.URL)
	assert.Equal(t, 3*time.Second, c.Backend.Timeout)
	assert.Equal(t, 2*time.Second, c.Dashboard.Interval)
	assert.Equal(t, "weekdays", c.Access.Days)
	assert.Equal(t, "ar", c.Lang)
	assert.Equal(t, "debug", c.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 3, c.Log.MaxBackups)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeConfig(t, home, "backend:\n  url: https://file.example.org\n")

	t.Setenv("BACKEND_URL", "https://legacy.example.org")
	t.Setenv("GATEPASS_BACKEND_URL", "https://env.example.org")
	t.Setenv("GATEPASS_TIMEOUT", "1500ms")
	t.Setenv("GATEPASS_LANG", "ar")
	t.Setenv("LOG_FILE", "/tmp/gatepass.log")
	t.Setenv("LOG_MAX_SIZE_MB", "5")

	c, err := Load(home)

	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", c.Backend.URL)
	assert.Equal(t, 1500*time.Millisecond, c.Backend.Timeout)
	assert.Equal(t, "ar", c.Lang)
	assert.Equal(t, "/tmp/gatepass.log", c.Log.File)
	assert.Equal(t, 5, c.Log.MaxSizeMB)
}

func TestLoadLegacyBackendEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "https://legacy.example.org")

	c, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.org", c.Backend.URL)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeConfig(t, home, "backend: [")

	_, err := Load(home)

	assert.Error(t, err)
}

func TestLoadInvalidLang(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeConfig(t, home, "lang: fr\n")

	_, err := Load(home)

	assert.ErrorContains(t, err, "lang")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GATEPASS_TEST_DOTENV=from-file\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("GATEPASS_TEST_DOTENV") })

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), path))

	assert.Equal(t, "from-file", os.Getenv("GATEPASS_TEST_DOTENV"))
}

func TestWriteAndReadFile(t *testing.T) {
	home := t.TempDir()
	c := Default(home)
	require.NoError(t, c.Set("backend.url", "https://gate.example.org"))
	require.NoError(t, c.Set("dashboard.interval", "5s"))

	require.NoError(t, Write(home, c))

	got, err := ReadFile(home)
	require.NoError(t, err)
	assert.Equal(t, "https://gate.example.org", got.Backend.URL)
	assert.Equal(t, 5*time.Second, got.Dashboard.Interval)
}

func TestGetSet(t *testing.T) {
	c := Default(t.TempDir())

	v, err := c.Get("backend.timeout")
	require.NoError(t, err)
	assert.Equal(t, "10s", v)

	assert.Error(t, c.Set("backend.timeout", "soon"))
	assert.Error(t, Default("").Set("dashboard.interval", "0s"))
	assert.Error(t, Default("").Set("lang", "de"))
	assert.Error(t, c.Set("nope", "x"))

	_, err = c.Get("nope")
	assert.Error(t, err)

	require.NoError(t, c.Set("lang", "ar"))
	assert.Equal(t, "ar", c.Lang)

	assert.Error(t, c.Set("access.days", "whenever"))
	assert.Equal(t, "daily", c.Access.Days)
	require.NoError(t, c.Set("access.days", "every friday and saturday"))
	assert.Equal(t, "every friday and saturday", c.Access.Days)
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "backend.url")
	assert.IsIncreasing(t, keys)
}
