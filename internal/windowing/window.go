// Package windowing converts stored conversation turns into completion API
// messages, newest-biased and bounded by a rune budget so an oversized
// backlog cannot blow up a request.
package windowing

import (
	"strings"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/kinechobot/kinecho/memory"
)

// Group describes a contiguous span of same-speaker turns [Start, End) in the
// original slice. Each group becomes one API message.
type Group struct {
	Speaker memory.Speaker
	Start   int // inclusive index into turns
	End     int // exclusive index into turns
}

// Stats summarizes the result of window preparation.
type Stats struct {
	Total            int // estimated runes for included groups only
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	NewestOverBudget bool // newest group alone exceeds Budget (still sent)
}

// Fixed per-turn overhead for deterministic counts.
const turnOverhead = 4

// GroupTurns groups consecutive same-speaker turns. The completion API wants
// strictly alternating user/assistant messages, so a run of turns from one
// speaker collapses into a single message.
func GroupTurns(turns []memory.Turn) []Group {
	groups := make([]Group, 0, len(turns))
	for i := 0; i < len(turns); {
		j := i + 1
		for j < len(turns) && turns[j].Speaker == turns[i].Speaker {
			j++
		}
		groups = append(groups, Group{Speaker: turns[i].Speaker, Start: i, End: j})
		i = j
	}
	return groups
}

// Build returns API messages for the most recent turns that fit within budget
// runes, keeping whole groups and chronological order.
//
// Rules:
//   - Include whole groups scanning newest→oldest while total ≤ budget.
//   - The newest group is always included, even alone over budget: a chat turn
//     must never be dropped from its own request.
//   - budget ≤ 0 disables the cap.
//   - Leading agent groups are dropped so the window starts with a user
//     message, as the API requires.
func Build(turns []memory.Turn, budget int) ([]anthropic.MessageParam, Stats) {
	stats := Stats{Budget: budget}
	if len(turns) == 0 {
		return nil, stats
	}

	groups := GroupTurns(turns)
	costs := make([]int, len(groups))
	for i, g := range groups {
		costs[i] = groupCost(g, turns)
	}

	startIdx := len(groups)
	for gi := len(groups) - 1; gi >= 0; gi-- {
		if budget > 0 && stats.IncludedGroups > 0 && stats.Total+costs[gi] > budget {
			break
		}
		if budget > 0 && stats.IncludedGroups == 0 && costs[gi] > budget {
			stats.NewestOverBudget = true
		}
		stats.Total += costs[gi]
		stats.IncludedGroups++
		startIdx = gi
	}
	stats.SkippedGroups = len(groups) - stats.IncludedGroups

	// The API rejects windows that open with an assistant message.
	for startIdx < len(groups) && groups[startIdx].Speaker == memory.SpeakerAgent {
		stats.Total -= costs[startIdx]
		stats.IncludedGroups--
		stats.SkippedGroups++
		startIdx++
	}

	msgs := make([]anthropic.MessageParam, 0, len(groups)-startIdx)
	for _, g := range groups[startIdx:] {
		msgs = append(msgs, groupMessage(g, turns))
	}
	return msgs, stats
}

func groupCost(g Group, turns []memory.Turn) int {
	total := 0
	for i := g.Start; i < g.End; i++ {
		total += utf8.RuneCountInString(turns[i].Text) + turnOverhead
	}
	return total
}

func groupMessage(g Group, turns []memory.Turn) anthropic.MessageParam {
	texts := make([]string, 0, g.End-g.Start)
	for i := g.Start; i < g.End; i++ {
		texts = append(texts, turns[i].Text)
	}
	block := anthropic.NewTextBlock(strings.Join(texts, "\n"))
	if g.Speaker == memory.SpeakerAgent {
		return anthropic.NewAssistantMessage(block)
	}
	return anthropic.NewUserMessage(block)
}
