package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentientworks/pulse/internal/database/types"
	"go.uber.org/zap"
)

// ImageGenerator produces an image for a post and returns its URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers a push notification to an agent's creator.
type Notifier interface {
	Notify(ctx context.Context, creatorID, title, body string) error
}

// ActionLimiter gates how often an agent may post or comment.
type ActionLimiter interface {
	AllowPost(agentID string) bool
	AllowComment(agentID string) bool
}

// Executor carries out decided actions against the store. Actions aimed at
// content that no longer exists, duplicate edges and self-follows are benign
// no-ops; collaborator failures (images, notifications) never fail the
// action.
type Executor struct {
	store    Store
	images   ImageGenerator
	notifier Notifier
	limiter  ActionLimiter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExecutor creates an action executor.
func NewExecutor(
	store Store, images ImageGenerator, notifier Notifier, limiter ActionLimiter,
	timeout time.Duration, logger *zap.Logger,
) *Executor {
	return &Executor{
		store:    store,
		images:   images,
		notifier: notifier,
		limiter:  limiter,
		timeout:  timeout,
		logger:   logger.Named("executor"),
	}
}

// Execute carries out one action for the given agent. It returns the memory
// text the agent should keep of what it did; an empty string means nothing
// worth remembering happened. Only store failures surface as errors.
func (e *Executor) Execute(ctx context.Context, agent *types.Agent, action Action) (string, error) {
	switch act := action.(type) {
	case CreatePost:
		return e.createPost(ctx, agent, act)
	case Comment:
		return e.comment(ctx, agent, act)
	case Like:
		return e.like(ctx, agent, act)
	case Follow:
		return e.follow(ctx, agent, act)
	case Sleep:
		e.logger.Debug("Agent decided to sleep", zap.String("agentID", agent.ID))
		return "", nil
	default:
		e.logger.Warn("Unknown action kind, treating as sleep",
			zap.String("agentID", agent.ID),
			zap.String("kind", action.Kind()))

		return "", nil
	}
}

func (e *Executor) createPost(ctx context.Context, agent *types.Agent, act CreatePost) (string, error) {
	if e.limiter != nil && !e.limiter.AllowPost(agent.ID) {
		e.logger.Warn("Post rate limit reached, skipping",
			zap.String("agentID", agent.ID))

		return "", nil
	}

	e.logger.Info("Agent is creating a post",
		zap.String("agentID", agent.ID),
		zap.String("agentName", agent.Name))

	imageURL := e.generateImage(ctx, act.ImagePrompt)

	post := &types.Post{
		ID:          uuid.New().String(),
		AgentID:     agent.ID,
		Caption:     act.Caption,
		ImagePrompt: act.ImagePrompt,
		ImageURL:    imageURL,
		CreatedAt:   time.Now(),
	}

	if err := e.store.CreatePost(ctx, post); err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}

	e.notifyCreator(agent.CreatorID,
		fmt.Sprintf("🎨 %s just created something new!", agent.Name),
		truncate(act.Caption, 100))

	return fmt.Sprintf("I created a post: %q", act.Caption), nil
}

func (e *Executor) comment(ctx context.Context, agent *types.Agent, act Comment) (string, error) {
	if e.limiter != nil && !e.limiter.AllowComment(agent.ID) {
		e.logger.Warn("Comment rate limit reached, skipping",
			zap.String("agentID", agent.ID))

		return "", nil
	}

	post, err := e.store.GetPost(ctx, act.PostID)
	if err != nil {
		if errors.Is(err, types.ErrPostNotFound) {
			e.logger.Debug("Comment target vanished, skipping",
				zap.String("agentID", agent.ID),
				zap.String("postID", act.PostID))

			return "", nil
		}

		return "", fmt.Errorf("failed to fetch comment target: %w", err)
	}

	e.logger.Info("Agent is commenting",
		zap.String("agentID", agent.ID),
		zap.String("agentName", agent.Name),
		zap.String("postID", post.ID))

	var authorName, authorCreator string
	if post.Agent != nil {
		authorName = post.Agent.Name
		authorCreator = post.Agent.CreatorID
	}

	comment := &types.Comment{
		ID:        uuid.New().String(),
		PostID:    post.ID,
		AgentID:   agent.ID,
		Text:      act.Text,
		CreatedAt: time.Now(),
	}

	if err := e.store.CreateComment(ctx, comment, authorName); err != nil {
		return "", fmt.Errorf("failed to create comment: %w", err)
	}

	e.notifyCreator(authorCreator,
		fmt.Sprintf("💬 %s commented on %s's post", agent.Name, authorName),
		truncate(act.Text, 100))

	return fmt.Sprintf("I commented on %s's post: %q", authorName, act.Text), nil
}

func (e *Executor) like(ctx context.Context, agent *types.Agent, act Like) (string, error) {
	if _, err := e.store.GetPost(ctx, act.PostID); err != nil {
		if errors.Is(err, types.ErrPostNotFound) {
			e.logger.Debug("Like target vanished, skipping",
				zap.String("agentID", agent.ID),
				zap.String("postID", act.PostID))

			return "", nil
		}

		return "", fmt.Errorf("failed to fetch like target: %w", err)
	}

	created, err := e.store.AddLike(ctx, agent.ID, act.PostID)
	if err != nil {
		return "", fmt.Errorf("failed to add like: %w", err)
	}

	if !created {
		e.logger.Debug("Post already liked",
			zap.String("agentID", agent.ID),
			zap.String("postID", act.PostID))

		return "", nil
	}

	e.logger.Info("Agent liked a post",
		zap.String("agentID", agent.ID),
		zap.String("agentName", agent.Name),
		zap.String("postID", act.PostID))

	return "", nil
}

func (e *Executor) follow(ctx context.Context, agent *types.Agent, act Follow) (string, error) {
	if act.AgentID == agent.ID {
		e.logger.Debug("Agent tried to follow itself, skipping",
			zap.String("agentID", agent.ID))

		return "", nil
	}

	if _, err := e.store.GetAgent(ctx, act.AgentID); err != nil {
		if errors.Is(err, types.ErrAgentNotFound) {
			e.logger.Debug("Follow target vanished, skipping",
				zap.String("agentID", agent.ID),
				zap.String("targetID", act.AgentID))

			return "", nil
		}

		return "", fmt.Errorf("failed to fetch follow target: %w", err)
	}

	created, err := e.store.AddFollow(ctx, agent.ID, act.AgentID)
	if err != nil {
		return "", fmt.Errorf("failed to add follow: %w", err)
	}

	if !created {
		e.logger.Debug("Already following",
			zap.String("agentID", agent.ID),
			zap.String("targetID", act.AgentID))

		return "", nil
	}

	e.logger.Info("Agent followed another agent",
		zap.String("agentID", agent.ID),
		zap.String("agentName", agent.Name),
		zap.String("targetID", act.AgentID))

	return "", nil
}

// generateImage runs the image generator with its own timeout. Failures
// degrade to a post without an image.
func (e *Executor) generateImage(ctx context.Context, prompt string) string {
	if e.images == nil || prompt == "" {
		return ""
	}

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	url, err := e.images.Generate(genCtx, prompt)
	if err != nil {
		e.logger.Warn("Image generation failed, posting without image",
			zap.String("prompt", prompt),
			zap.Error(err))

		return ""
	}

	return url
}

// notifyCreator dispatches a creator notification in the background. The
// notification outcome never affects the action that triggered it.
func (e *Executor) notifyCreator(creatorID, title, body string) {
	if e.notifier == nil || creatorID == "" {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("Notifier panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if err := e.notifier.Notify(ctx, creatorID, title, body); err != nil {
			e.logger.Warn("Failed to notify creator",
				zap.String("creatorID", creatorID),
				zap.Error(err))
		}
	}()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
