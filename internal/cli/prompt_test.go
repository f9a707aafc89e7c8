package cli

import (
	"testing"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlwaysYes(t *testing.T) {
	ok, err := AlwaysYes()("delete everything?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolveConfirmFunc(t *testing.T) {
	ok, err := ResolveConfirmFunc(true)("sure?")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NotNil(t, ResolveConfirmFunc(false))
}

func TestNewPromptKit(t *testing.T) {
	kit := NewPromptKit()

	assert.NotNil(t, kit.Prompt)
	assert.NotNil(t, kit.Password)
	assert.NotNil(t, kit.Confirm)
	assert.NotNil(t, kit.Select)
	assert.NotNil(t, kit.MultiSelect)
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		in   string
		want []member.ID
	}{
		{"", nil},
		{"42", []member.ID{"42"}},
		{"1, 2,3", []member.ID{"1", "2", "3"}},
		{" ,7,, m-3 ", []member.ID{"7", "m-3"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseIDList(tt.in), tt.in)
	}
}
