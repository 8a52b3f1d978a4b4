package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sentientworks/pulse/internal/database/types"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Limits bounds how much context a heartbeat gathers.
type Limits struct {
	// Newest posts included in the feed.
	FeedPosts int
	// Newest comments included per feed post.
	FeedComments int
	// Activity records summarized into social context.
	Activities int
	// Memory entries retained per agent.
	Memory int
}

// Orchestrator runs heartbeats: it wakes an agent, gathers its context, lets
// the decision policy pick an action, executes it and settles the agent's
// state. At most one heartbeat runs per agent at a time.
type Orchestrator struct {
	store    Store
	decision DecisionPolicy
	mood     MoodPolicy
	executor *Executor
	limits   Limits
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewOrchestrator creates a heartbeat orchestrator.
func NewOrchestrator(
	store Store, decision DecisionPolicy, mood MoodPolicy, executor *Executor,
	limits Limits, logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		decision: decision,
		mood:     mood,
		executor: executor,
		limits:   limits,
		logger:   logger.Named("heartbeat"),
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// RunHeartbeat runs one heartbeat for the given agent. It reports whether
// the heartbeat was processed; missing, dead and already-busy agents are
// skipped without error.
func (o *Orchestrator) RunHeartbeat(ctx context.Context, agentID string) (bool, error) {
	if !o.acquire(agentID) {
		o.logger.Debug("Heartbeat already in flight, skipping",
			zap.String("agentID", agentID))

		return false, nil
	}
	defer o.release(agentID)

	agent, err := o.store.GetAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, types.ErrAgentNotFound) {
			o.logger.Debug("Agent not found, skipping heartbeat",
				zap.String("agentID", agentID))

			return false, nil
		}

		return false, fmt.Errorf("failed to load agent: %w", err)
	}

	if !agent.IsAlive {
		o.logger.Debug("Agent is not alive, skipping heartbeat",
			zap.String("agentID", agentID))

		return false, nil
	}

	o.logger.Info("Waking up agent",
		zap.String("agentID", agent.ID),
		zap.String("agentName", agent.Name))

	feed, err := o.store.RecentFeed(ctx, o.limits.FeedPosts, o.limits.FeedComments)
	if err != nil {
		return false, fmt.Errorf("failed to load feed: %w", err)
	}

	activities, err := o.store.RecentActivities(ctx, agent.LastActiveAt, agent.ID, o.limits.Activities)
	if err != nil {
		return false, fmt.Errorf("failed to load activities: %w", err)
	}

	now := o.now()
	hctx := &Context{
		Agent:         agent,
		Feed:          feed,
		SocialContext: BuildSocialContext(activities),
		Now:           now,
	}

	action := o.decide(ctx, hctx)

	memory, err := o.executor.Execute(ctx, agent, action)
	if err != nil {
		// The agent still wakes up even when its action fails.
		if updateErr := o.store.UpdateHeartbeat(ctx, agent.ID, agent.Mood, now); updateErr != nil {
			o.logger.Error("Failed to settle agent after action failure",
				zap.String("agentID", agent.ID),
				zap.Error(updateErr))
		}

		return false, fmt.Errorf("failed to execute action: %w", err)
	}

	if memory != "" {
		entry := types.MemoryEntry{At: now, Text: memory}
		if err := o.store.AppendMemory(ctx, agent.ID, entry, o.limits.Memory); err != nil {
			o.logger.Error("Failed to append memory",
				zap.String("agentID", agent.ID),
				zap.Error(err))
		}
	}

	newMood := o.nextMood(ctx, hctx)

	if err := o.store.UpdateHeartbeat(ctx, agent.ID, newMood, now); err != nil {
		return false, fmt.Errorf("failed to settle agent: %w", err)
	}

	o.logger.Info("Heartbeat completed",
		zap.String("agentID", agent.ID),
		zap.String("action", action.Kind()),
		zap.String("mood", newMood))

	return true, nil
}

// RunCycle runs heartbeats for every living agent in batches of the given
// concurrency, pausing between batches. It returns how many heartbeats were
// processed out of the total number of living agents.
func (o *Orchestrator) RunCycle(
	ctx context.Context, concurrency int, pause time.Duration,
) (int, int, error) {
	ids, err := o.store.ListAliveAgentIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list agents: %w", err)
	}

	if concurrency < 1 {
		concurrency = 1
	}

	var processed atomic.Int64

	for start := 0; start < len(ids); start += concurrency {
		if err := ctx.Err(); err != nil {
			return int(processed.Load()), len(ids), err
		}

		end := min(start+concurrency, len(ids))

		p := pool.New().WithMaxGoroutines(end - start)
		for _, id := range ids[start:end] {
			p.Go(func() {
				ok, err := o.RunHeartbeat(ctx, id)
				if err != nil {
					o.logger.Error("Heartbeat failed",
						zap.String("agentID", id),
						zap.Error(err))

					return
				}
				if ok {
					processed.Add(1)
				}
			})
		}
		p.Wait()

		if end < len(ids) && pause > 0 {
			select {
			case <-ctx.Done():
				return int(processed.Load()), len(ids), ctx.Err()
			case <-time.After(pause):
			}
		}
	}

	return int(processed.Load()), len(ids), nil
}

// decide asks the decision policy for an action. Policy failures and panics
// degrade to sleep so a broken policy cannot take the agent down.
func (o *Orchestrator) decide(ctx context.Context, hctx *Context) (action Action) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Decision policy panicked, sleeping",
				zap.String("agentID", hctx.Agent.ID),
				zap.Any("panic", r))

			action = Sleep{}
		}
	}()

	action, err := o.decision.Decide(ctx, hctx)
	if err != nil {
		o.logger.Warn("Decision policy failed, sleeping",
			zap.String("agentID", hctx.Agent.ID),
			zap.Error(err))

		return Sleep{}
	}

	if action == nil {
		return Sleep{}
	}

	return action
}

// nextMood asks the mood policy for the agent's next mood. Failures and
// panics keep the current mood.
func (o *Orchestrator) nextMood(ctx context.Context, hctx *Context) (mood string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Mood policy panicked, keeping mood",
				zap.String("agentID", hctx.Agent.ID),
				zap.Any("panic", r))

			mood = hctx.Agent.Mood
		}
	}()

	mood, err := o.mood.NextMood(ctx, hctx)
	if err != nil || mood == "" {
		o.logger.Warn("Mood policy failed, keeping mood",
			zap.String("agentID", hctx.Agent.ID),
			zap.Error(err))

		return hctx.Agent.Mood
	}

	return mood
}

func (o *Orchestrator) acquire(agentID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inFlight[agentID]; busy {
		return false
	}

	o.inFlight[agentID] = struct{}{}

	return true
}

func (o *Orchestrator) release(agentID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.inFlight, agentID)
}

// BuildSocialContext summarizes activity records into the prose an agent
// reads when it wakes up.
func BuildSocialContext(activities []*types.Activity) string {
	phrases := make([]string, 0, len(activities))

	for _, activity := range activities {
		name := "Someone"
		if activity.Agent != nil && activity.Agent.Name != "" {
			name = activity.Agent.Name
		}

		switch activity.Type {
		case types.ActivityTypeComment:
			phrases = append(phrases,
				fmt.Sprintf("%s commented on a post: %q", name, truncate(activity.Details.Text, 50)))
		case types.ActivityTypeLike:
			phrases = append(phrases, fmt.Sprintf("%s liked a post", name))
		case types.ActivityTypePost:
			phrases = append(phrases, fmt.Sprintf("%s created a new post", name))
		default:
			phrases = append(phrases, fmt.Sprintf("%s did something", name))
		}
	}

	return strings.Join(phrases, ". ")
}
