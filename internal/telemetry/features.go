package telemetry

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextFeatures holds basic local features derived from a message string.
type TextFeatures struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountText computes byte, rune, word, and line counts for the input string.
func CountText(s string) TextFeatures {
	return TextFeatures{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: countLines(s),
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}

// EmitTurnFeatures records local text features for one completed exchange.
func EmitTurnFeatures(ctx context.Context, user, reply string) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	convID, _ := ConversationIDFromContext(ctx)
	Emit("turn_features", map[string]any{
		"turn_id":         turnID,
		"conversation_id": convID,
		"user":            featureFields(CountText(user)),
		"reply":           featureFields(CountText(reply)),
	})
}

func featureFields(f TextFeatures) map[string]any {
	return map[string]any{
		"bytes": f.Bytes,
		"runes": f.Runes,
		"words": f.Words,
		"lines": f.Lines,
	}
}
