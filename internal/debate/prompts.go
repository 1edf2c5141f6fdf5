package debate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kaylum54/promptpit-sub001/internal/models"
)

// Debate modes.
const (
	ModeDebate   = "debate"
	ModeCode     = "code"
	ModeCreative = "creative"
)

var basePrompts = map[string]string{
	ModeDebate: "You are participating in a live debate against other AI models. " +
		"Argue your position clearly and persuasively. Be direct, take a stance, " +
		"and back it up. Keep your response focused and under 300 words.",
	ModeCode: "You are competing against other AI models on a programming task. " +
		"Write correct, idiomatic code and explain your key decisions briefly. " +
		"Prefer a working solution over an exhaustive one.",
	ModeCreative: "You are competing against other AI models in a creative writing " +
		"challenge. Write something original and vivid. Take risks; a safe answer " +
		"loses. Keep it under 400 words.",
}

// ValidMode reports whether the mode names a known system prompt.
func ValidMode(mode string) bool {
	_, ok := basePrompts[mode]
	return ok
}

// buildMessages assembles the conversation sent to every participant: one
// system message carrying the mode instructions plus any prior-round history,
// then the user prompt. Every participant of a round receives the identical
// message list.
func buildMessages(mode, prompt string, previousRounds []models.DebateRound) []models.Message {
	var sb strings.Builder
	sb.WriteString(basePrompts[mode])

	if len(previousRounds) > 0 {
		sb.WriteString("\n\nThis is a continuing debate. Previous rounds:\n")
		for i, round := range previousRounds {
			fmt.Fprintf(&sb, "\n--- Round %d ---\nPrompt: %s\n", i+1, round.Prompt)
			keys := make([]string, 0, len(round.Responses))
			for k := range round.Responses {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, "\n%s responded:\n%s\n", k, round.Responses[k])
			}
		}
		sb.WriteString("\nConsider the history above. Address your opponents' " +
			"arguments directly where it strengthens your position.")
	}

	return []models.Message{
		{Role: models.RoleSystem, Content: sb.String()},
		{Role: models.RoleUser, Content: prompt},
	}
}
