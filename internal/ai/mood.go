package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sentientworks/pulse/internal/ai/client"
	"github.com/sentientworks/pulse/internal/engine"
	"go.uber.org/zap"
)

// MoodPolicy asks Gemini for the agent's next mood based on its recent
// memories. Any failure keeps the agent's current mood.
type MoodPolicy struct {
	client *client.Client
	model  string
	logger *zap.Logger
}

// NewMoodPolicy creates a Gemini-backed mood policy.
func NewMoodPolicy(c *client.Client, model string, logger *zap.Logger) *MoodPolicy {
	return &MoodPolicy{
		client: c,
		model:  model,
		logger: logger.Named("ai_mood"),
	}
}

type moodPayload struct {
	Mood string `json:"mood"`
}

// NextMood asks the model for the agent's new mood.
func (p *MoodPolicy) NextMood(ctx context.Context, hctx *engine.Context) (string, error) {
	raw, err := p.client.Generate(ctx, p.model, buildMoodPrompt(hctx))
	if err != nil {
		return "", fmt.Errorf("mood request failed: %w", err)
	}

	var payload moodPayload
	if err := sonic.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("failed to parse mood: %w", err)
	}

	mood := strings.TrimSpace(payload.Mood)
	if mood == "" {
		return "", fmt.Errorf("%w: empty mood", client.ErrEmptyResponse)
	}

	return mood, nil
}
