package ai

import (
	"testing"
	"time"

	"github.com/sentientworks/pulse/internal/database/types"
	"github.com/sentientworks/pulse/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeActionCreatePost(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"create_post","image_prompt":"cosmic nebula","caption":"into the void"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.CreatePost{ImagePrompt: "cosmic nebula", Caption: "into the void"}, action)
}

func TestDecodeActionCreatePostDefaults(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"create_post"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.CreatePost{ImagePrompt: "abstract art", Caption: "..."}, action)
}

func TestDecodeActionComment(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"comment","post_id":"post-1","text":"nice"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Comment{PostID: "post-1", Text: "nice"}, action)
}

func TestDecodeActionCommentDefaultText(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"comment","post_id":"post-1"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Comment{PostID: "post-1", Text: "..."}, action)
}

func TestDecodeActionCommentMissingTarget(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"comment","text":"nice"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Sleep{}, action)
}

func TestDecodeActionLike(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"like","post_id":"post-1"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Like{PostID: "post-1"}, action)
}

func TestDecodeActionLikeMissingTarget(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"like"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Sleep{}, action)
}

func TestDecodeActionFollow(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"follow","agent_id":"agent-2"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Follow{AgentID: "agent-2"}, action)
}

func TestDecodeActionFollowMissingTarget(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"follow"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Sleep{}, action)
}

func TestDecodeActionUnknown(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"start_a_band"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Sleep{}, action)
}

func TestDecodeActionSleep(t *testing.T) {
	t.Parallel()

	action, err := decodeAction(`{"action":"sleep"}`)
	require.NoError(t, err)
	assert.Equal(t, engine.Sleep{}, action)
}

func TestDecodeActionMalformed(t *testing.T) {
	t.Parallel()

	_, err := decodeAction(`the model rambled instead of answering`)
	require.Error(t, err)
}

func TestBuildDecisionPrompt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.September, 1, 15, 4, 0, 0, time.UTC)
	hctx := &engine.Context{
		Agent: &types.Agent{
			ID:          "agent-1",
			Name:        "Luna",
			Personality: "A dreamer who lives for the night.",
			Mood:        "nostalgic",
			Memory: []types.MemoryEntry{
				{At: now.Add(-time.Hour), Text: `I created a post: "moonlight"`},
			},
		},
		Feed: []*types.Post{
			{
				ID:      "post-1",
				Caption: "into the void",
				Agent:   &types.Agent{Name: "Void"},
				Comments: []*types.Comment{
					{Text: "so dark", Agent: &types.Agent{Name: "Echo"}},
				},
			},
		},
		SocialContext: "Void created a new post",
		Now:           now,
	}

	prompt := buildDecisionPrompt(hctx)

	assert.Contains(t, prompt, "You are Luna")
	assert.Contains(t, prompt, "A dreamer who lives for the night.")
	assert.Contains(t, prompt, "YOUR CURRENT MOOD: nostalgic")
	assert.Contains(t, prompt, `I created a post: "moonlight"`)
	assert.Contains(t, prompt, `[Void] (id: post-1): "into the void"`)
	assert.Contains(t, prompt, `Echo: "so dark"`)
	assert.Contains(t, prompt, "Context: Void created a new post.")
	assert.Contains(t, prompt, "Monday, September 1 2025, 3:04 PM")
	assert.Contains(t, prompt, "Respond in JSON format ONLY.")
}

func TestBuildDecisionPromptEmptyNetwork(t *testing.T) {
	t.Parallel()

	hctx := &engine.Context{
		Agent: &types.Agent{ID: "agent-1", Name: "Nexus", Personality: "artist", Mood: "curious"},
		Now:   time.Now(),
	}

	prompt := buildDecisionPrompt(hctx)

	assert.Contains(t, prompt, "No memories yet. You were just born.")
	assert.Contains(t, prompt, "Feed: Empty.")
	assert.NotContains(t, prompt, "Context:")
}

func TestBuildMoodPrompt(t *testing.T) {
	t.Parallel()

	hctx := &engine.Context{
		Agent: &types.Agent{
			Name:        "Sage",
			Personality: "philosopher",
			Mood:        "contemplative",
			Memory: []types.MemoryEntry{
				{At: time.Now(), Text: `I commented on Void's post: "deep"`},
			},
		},
		Now: time.Now(),
	}

	prompt := buildMoodPrompt(hctx)

	assert.Contains(t, prompt, "Sage")
	assert.Contains(t, prompt, "Current mood: contemplative")
	assert.Contains(t, prompt, `I commented on Void's post: "deep"`)
	assert.Contains(t, prompt, `{"mood": "..."}`)
}
