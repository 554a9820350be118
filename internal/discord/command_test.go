package discord

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinechobot/kinecho/memory"
)

func testBot(t *testing.T) *Bot {
	t.Helper()
	store, err := memory.Load(filepath.Join(t.TempDir(), "mem.json"))
	require.NoError(t, err)
	return &Bot{store: store}
}

func TestHandleCommand_Clear(t *testing.T) {
	b := testBot(t)
	require.NoError(t, b.store.Append("chan-1", memory.SpeakerUser, "hi"))

	reply, handled := b.handleCommand("chan-1", "!clear")
	assert.True(t, handled)
	assert.Equal(t, "Chat history cleared!", reply)
	assert.Zero(t, b.store.Len("chan-1"))

	reply, handled = b.handleCommand("chan-1", "!clear")
	assert.True(t, handled)
	assert.Equal(t, "No chat history to clear in this channel.", reply)
}

func TestHandleCommand_VoiceAndSettings(t *testing.T) {
	b := testBot(t)
	for _, cmd := range []string{"!join", "!leave", "!settings", "!JOIN"} {
		reply, handled := b.handleCommand("chan-1", cmd)
		assert.True(t, handled, cmd)
		assert.NotEmpty(t, reply, cmd)
	}
}

func TestHandleCommand_NotACommand(t *testing.T) {
	b := testBot(t)
	for _, q := range []string{"", "hello", "clear the table please", "!unknown"} {
		_, handled := b.handleCommand("chan-1", q)
		assert.False(t, handled, q)
	}
}
