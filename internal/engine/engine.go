// Package engine runs one chat exchange: context window from the store,
// completion request, store update.
//
// Flow:
//
//	user(text) -> window(recent turns) -> assistant(text) -> store append
package engine

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kinechobot/kinecho/internal/telemetry"
	"github.com/kinechobot/kinecho/internal/windowing"
	"github.com/kinechobot/kinecho/memory"
)

// FailureReply is the generic user-facing message when the completion API
// fails. The real error is logged, never shown to the channel.
const FailureReply = "Sorry, something went wrong while I was thinking. Please try again in a bit."

// Options holds the per-request completion parameters. They are read through
// a getter so settings reloads take effect on the next exchange.
type Options struct {
	Model        anthropic.Model
	MaxTokens    int64
	SystemPrompt string
	// Window is the number of stored turns offered to the model.
	Window int
	// RuneBudget caps the window size; 0 disables the cap.
	RuneBudget int
}

// Responder is the front-end facing surface of the engine.
type Responder interface {
	Respond(ctx context.Context, key, text string) (string, error)
}

type Engine struct {
	client *anthropic.Client
	store  *memory.Store
	opts   func() Options
}

func New(client *anthropic.Client, store *memory.Store, opts func() Options) *Engine {
	return &Engine{client: client, store: store, opts: opts}
}

// Respond sends text under the conversation key and returns the model's
// reply. On success both turns are appended to the store; on API failure
// nothing is stored and the caller is expected to surface FailureReply.
func (e *Engine) Respond(ctx context.Context, key, text string) (string, error) {
	if key == "" {
		return "", errors.New("engine: empty conversation key")
	}

	turnID := uuid.NewString()
	ctx = telemetry.WithTurnID(telemetry.WithConversationID(ctx, key), turnID)
	opts := e.opts()

	history := e.store.Context(key, opts.Window)
	msgs, stats := windowing.Build(history, opts.RuneBudget)
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))

	telemetry.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"conversation_id":    key,
		"model":              string(opts.Model),
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"newest_over_budget": stats.NewestOverBudget,
	})

	params := anthropic.MessageNewParams{
		Model:     opts.Model,
		MaxTokens: opts.MaxTokens,
		Messages:  msgs,
	}
	if opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.SystemPrompt}}
	}

	msg, err := e.client.Messages.New(ctx, params)
	if err != nil {
		log.Error().Err(err).
			Str("conversation", key).
			Str("turn", turnID).
			Msg("completion request failed")
		return "", errors.Wrap(err, "engine: completion request")
	}

	reply := collectText(msg)
	log.Debug().
		Str("conversation", key).
		Str("turn", turnID).
		Int("history_turns", len(history)).
		Int("reply_runes", len(reply)).
		Msg("exchange completed")

	if err := e.store.Append(key, memory.SpeakerUser, text); err != nil {
		log.Warn().Err(err).Str("conversation", key).Msg("failed to persist user turn")
	}
	if err := e.store.Append(key, memory.SpeakerAgent, reply); err != nil {
		log.Warn().Err(err).Str("conversation", key).Msg("failed to persist agent turn")
	}

	telemetry.EmitTurnFeatures(ctx, text, reply)
	return reply, nil
}

// collectText joins the assistant message's text blocks.
func collectText(msg *anthropic.Message) string {
	var parts []string
	for _, b := range msg.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "\n")
}
