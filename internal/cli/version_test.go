package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func execVersion(short bool) string {
	buf := new(bytes.Buffer)
	cmd := versionCmd
	cmd.SetOut(buf)
	_ = runVersion(cmd, short)
	return buf.String()
}

func TestVersionDefault(t *testing.T) {
	SetVersionInfo("dev", "none", "unknown")

	assert.Equal(t, "gatepass dev (commit: none, built: unknown)\n", execVersion(false))
}

func TestVersionRelease(t *testing.T) {
	SetVersionInfo("1.0.0", "abc1234", "2025-01-01")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	assert.Equal(t, "gatepass 1.0.0 (commit: abc1234, built: 2025-01-01)\n", execVersion(false))
	assert.Equal(t, "1.0.0\n", execVersion(true))
}
