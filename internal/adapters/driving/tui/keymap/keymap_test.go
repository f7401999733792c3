package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.Quit.Keys(), "ctrl+c")
	assert.Contains(t, km.Ask.Keys(), "enter")
	assert.Contains(t, km.Teach.Keys(), "ctrl+t")
	assert.Contains(t, km.Clear.Keys(), "ctrl+l")
	assert.Contains(t, km.ScrollUp.Keys(), "up")
	assert.Contains(t, km.ScrollDown.Keys(), "down")
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("enter", km.Ask))
	assert.True(t, Matches("pgup", km.ScrollUp))
	assert.False(t, Matches("x", km.Quit))
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()
	require.Len(t, bindings, 3)
	assert.Equal(t, "ask", bindings[0].Help().Desc)
	assert.Equal(t, "teach", bindings[1].Help().Desc)
	assert.Equal(t, "quit", bindings[2].Help().Desc)
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	groups := km.FullHelp()
	require.Len(t, groups, 2)
	for _, group := range groups {
		assert.NotEmpty(t, group)
	}
}
