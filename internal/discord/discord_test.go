package discord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kinechobot/kinecho/internal/config"
	"github.com/kinechobot/kinecho/internal/discord"
)

func TestStripMention(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain mention", "<@42> hello there", " hello there"},
		{"nickname mention", "<@!42> hello", " hello"},
		{"mention mid-message", "hey <@42>, got a minute?", "hey , got a minute?"},
		{"other user untouched", "<@99> hello", "<@99> hello"},
		{"no mention", "hello", "hello"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, discord.StripMention(tc.content, "42"))
		})
	}
}

func TestConversationKey(t *testing.T) {
	tests := []struct {
		name    string
		keying  string
		guildID string
		want    string
	}{
		{"channel keying", config.KeyingChannel, "g1", "chan-1"},
		{"user keying", config.KeyingUser, "g1", "author-1"},
		{"dm overrides channel keying", config.KeyingChannel, "", discord.DMKey},
		{"dm overrides user keying", config.KeyingUser, "", discord.DMKey},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := discord.ConversationKey(tc.keying, tc.guildID, "chan-1", "author-1")
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew_RejectsEmptyToken(t *testing.T) {
	_, err := discord.New("", nil, nil, config.KeyingChannel)
	assert.Error(t, err)
}
