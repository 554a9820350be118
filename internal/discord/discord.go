// Package discord is the Discord front end. The bot answers when mentioned
// in a guild channel or for any direct message, and keeps per-conversation
// history through the shared store.
package discord

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kinechobot/kinecho/internal/config"
	"github.com/kinechobot/kinecho/internal/engine"
	"github.com/kinechobot/kinecho/memory"
)

// DMKey groups all direct messages under one conversation, matching the
// stored-file convention of the channel keying scheme.
const DMKey = "dm"

type Bot struct {
	session   *discordgo.Session
	responder engine.Responder
	store     *memory.Store
	keying    string

	// set by Run; handlers run on discordgo's goroutines after Open.
	ctx context.Context
}

func New(token string, responder engine.Responder, store *memory.Store, keying string) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord: empty bot token")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "discord: create session")
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentGuildMembers

	b := &Bot{session: session, responder: responder, store: store, keying: keying}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessage)
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "discord: open gateway")
	}
	<-ctx.Done()
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Info().
		Str("username", r.User.Username).
		Str("user_id", r.User.ID).
		Msg("discord session ready")
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State == nil || s.State.User == nil {
		return
	}
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	isDM := m.GuildID == ""
	mentioned := mentionsUser(m.Mentions, s.State.User.ID)
	if !isDM && !mentioned {
		return
	}

	query := strings.TrimSpace(StripMention(m.Content, s.State.User.ID))
	key := ConversationKey(b.keying, m.GuildID, m.ChannelID, m.Author.ID)

	log.Debug().
		Str("author", m.Author.ID).
		Str("channel", m.ChannelID).
		Str("conversation", key).
		Bool("dm", isDM).
		Msg("processing discord message")

	if reply, handled := b.handleCommand(key, query); handled {
		b.send(m.ChannelID, reply)
		return
	}

	if query == "" {
		b.send(m.ChannelID, fmt.Sprintf("Yes, <@%s>?", m.Author.ID))
		return
	}

	reply, err := b.responder.Respond(b.ctx, key, query)
	if err != nil {
		reply = engine.FailureReply
	}
	if !isDM {
		reply = fmt.Sprintf("<@%s> %s", m.Author.ID, reply)
	}
	b.send(m.ChannelID, reply)
}

// handleCommand answers the bang commands. Voice channel support from an
// earlier incarnation of the bot is intentionally answered, not implemented.
func (b *Bot) handleCommand(key, query string) (string, bool) {
	switch strings.ToLower(firstWord(query)) {
	case "!clear":
		if b.store.Len(key) == 0 {
			return "No chat history to clear in this channel.", true
		}
		if err := b.store.Clear(key); err != nil {
			log.Warn().Err(err).Str("conversation", key).Msg("failed to clear history")
			return engine.FailureReply, true
		}
		return "Chat history cleared!", true
	case "!settings":
		return "I don't have settings you can change from here yet. Check back later!", true
	case "!join", "!leave":
		return "Voice channels aren't supported in this build.", true
	}
	return "", false
}

func (b *Bot) send(channelID, content string) {
	if _, err := b.session.ChannelMessageSend(channelID, content); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("failed to send message")
	}
}

// ConversationKey picks the memory key for a message: the fixed DM key for
// direct messages, otherwise the channel or author ID per the keying scheme.
func ConversationKey(keying, guildID, channelID, authorID string) string {
	if guildID == "" {
		return DMKey
	}
	if keying == config.KeyingUser {
		return authorID
	}
	return channelID
}

var mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

// StripMention removes mentions of the given user from content.
func StripMention(content, userID string) string {
	return mentionPattern.ReplaceAllStringFunc(content, func(m string) string {
		if sub := mentionPattern.FindStringSubmatch(m); len(sub) == 2 && sub[1] == userID {
			return ""
		}
		return m
	})
}

func mentionsUser(mentions []*discordgo.User, userID string) bool {
	for _, u := range mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}
