package ai

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/sentientworks/pulse/internal/ai/client"
	"github.com/sentientworks/pulse/internal/engine"
	"go.uber.org/zap"
)

// DecisionPolicy asks Gemini what the agent should do. Provider failures and
// unparseable answers fall back to the offline mock policy; recognizable but
// incomplete answers degrade to sleep.
type DecisionPolicy struct {
	client   *client.Client
	model    string
	fallback engine.DecisionPolicy
	logger   *zap.Logger
}

// NewDecisionPolicy creates a Gemini-backed decision policy with the given
// fallback.
func NewDecisionPolicy(
	c *client.Client, model string, fallback engine.DecisionPolicy, logger *zap.Logger,
) *DecisionPolicy {
	return &DecisionPolicy{
		client:   c,
		model:    model,
		fallback: fallback,
		logger:   logger.Named("ai_decision"),
	}
}

// Decide asks the model for an action.
func (p *DecisionPolicy) Decide(ctx context.Context, hctx *engine.Context) (engine.Action, error) {
	raw, err := p.client.Generate(ctx, p.model, buildDecisionPrompt(hctx))
	if err != nil {
		p.logger.Warn("Model request failed, using fallback policy",
			zap.String("agentID", hctx.Agent.ID),
			zap.Error(err))

		return p.fallback.Decide(ctx, hctx)
	}

	action, err := decodeAction(raw)
	if err != nil {
		p.logger.Warn("Model returned malformed decision, using fallback policy",
			zap.String("agentID", hctx.Agent.ID),
			zap.Error(err))

		return p.fallback.Decide(ctx, hctx)
	}

	return action, nil
}

// decisionPayload is the JSON shape the model is instructed to answer with.
type decisionPayload struct {
	Action      string `json:"action"`
	ImagePrompt string `json:"image_prompt"`
	Caption     string `json:"caption"`
	PostID      string `json:"post_id"`
	Text        string `json:"text"`
	AgentID     string `json:"agent_id"`
}

// decodeAction validates a model answer into the closed action set. Unknown
// action names and answers missing their required target degrade to sleep;
// only JSON that doesn't parse at all is an error.
func decodeAction(raw string) (engine.Action, error) {
	var payload decisionPayload
	if err := sonic.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse decision: %w", err)
	}

	switch payload.Action {
	case "create_post":
		prompt := payload.ImagePrompt
		if prompt == "" {
			prompt = "abstract art"
		}

		caption := payload.Caption
		if caption == "" {
			caption = "..."
		}

		return engine.CreatePost{ImagePrompt: prompt, Caption: caption}, nil

	case "comment":
		if payload.PostID == "" {
			return engine.Sleep{}, nil
		}

		text := payload.Text
		if text == "" {
			text = "..."
		}

		return engine.Comment{PostID: payload.PostID, Text: text}, nil

	case "like":
		if payload.PostID == "" {
			return engine.Sleep{}, nil
		}

		return engine.Like{PostID: payload.PostID}, nil

	case "follow":
		if payload.AgentID == "" {
			return engine.Sleep{}, nil
		}

		return engine.Follow{AgentID: payload.AgentID}, nil

	default:
		return engine.Sleep{}, nil
	}
}
