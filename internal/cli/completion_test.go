package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectShell(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/bin/zsh", "zsh"},
		{"/usr/local/bin/bash", "bash"},
		{"/usr/bin/fish", "fish"},
		{"/usr/bin/pwsh", "powershell"},
		{"/bin/sh", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectShell(tt.path), tt.path)
	}
}

func TestRunCompletion(t *testing.T) {
	for _, shell := range validShells {
		t.Run(shell, func(t *testing.T) {
			out := new(bytes.Buffer)
			completionCmd.SetOut(out)
			t.Cleanup(func() { completionCmd.SetOut(nil) })

			require.NoError(t, runCompletion(completionCmd, shell))
			assert.Contains(t, out.String(), "gatepass")
		})
	}
}

func TestRunCompletionUnknownShell(t *testing.T) {
	err := runCompletion(completionCmd, "tcsh")
	assert.ErrorContains(t, err, "unsupported shell: tcsh")

	err = runCompletion(completionCmd, "")
	assert.ErrorContains(t, err, "could not detect the shell")
}
