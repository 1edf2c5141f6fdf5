package debate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaylum54/promptpit-sub001/internal/models"
)

func TestValidMode(t *testing.T) {
	assert.True(t, ValidMode(ModeDebate))
	assert.True(t, ValidMode(ModeCode))
	assert.True(t, ValidMode(ModeCreative))
	assert.False(t, ValidMode("rap-battle"))
	assert.False(t, ValidMode(""))
}

func TestBuildMessagesFirstRound(t *testing.T) {
	msgs := buildMessages(ModeDebate, "Is cereal a soup?", nil)
	require.Len(t, msgs, 2)

	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "debate")
	assert.NotContains(t, msgs[0].Content, "Previous rounds")

	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, "Is cereal a soup?", msgs[1].Content)
}

func TestBuildMessagesIncludesHistory(t *testing.T) {
	rounds := []models.DebateRound{
		{
			Prompt: "Does pineapple belong on pizza?",
			Responses: map[string]string{
				"gpt":    "No, never.",
				"claude": "Yes, absolutely.",
			},
		},
	}
	msgs := buildMessages(ModeDebate, "Defend your position.", rounds)
	require.Len(t, msgs, 2)

	system := msgs[0].Content
	assert.Contains(t, system, "Round 1")
	assert.Contains(t, system, "Does pineapple belong on pizza?")
	assert.Contains(t, system, "Yes, absolutely.")
	assert.Contains(t, system, "No, never.")

	// History is rendered in sorted key order so every participant sees the
	// same transcript.
	assert.Less(t, strings.Index(system, "claude responded"), strings.Index(system, "gpt responded"))
}

func TestBuildMessagesIdenticalPerParticipant(t *testing.T) {
	rounds := []models.DebateRound{{Prompt: "p", Responses: map[string]string{"a": "x", "b": "y"}}}
	first := buildMessages(ModeCode, "next", rounds)
	second := buildMessages(ModeCode, "next", rounds)
	assert.Equal(t, first, second)
}
