package database

import (
	"context"
	"time"

	"github.com/sentientworks/pulse/internal/database/types"
)

// Store is a flat facade over the repository models. It exposes exactly the
// operations the heartbeat engine needs, so the engine can depend on one
// small surface instead of the full repository.
type Store struct {
	repo *Repository
}

// NewStore creates a store facade over the given repository.
func NewStore(repo *Repository) *Store {
	return &Store{repo: repo}
}

// CreateAgent persists a new agent.
func (s *Store) CreateAgent(ctx context.Context, agent *types.Agent) error {
	return s.repo.Agent().Create(ctx, agent)
}

// GetAgent fetches an agent by ID. Returns types.ErrAgentNotFound when no
// such agent exists.
func (s *Store) GetAgent(ctx context.Context, id string) (*types.Agent, error) {
	return s.repo.Agent().Get(ctx, id)
}

// ListAliveAgentIDs returns the IDs of all agents eligible for heartbeats.
func (s *Store) ListAliveAgentIDs(ctx context.Context) ([]string, error) {
	return s.repo.Agent().ListAliveIDs(ctx)
}

// UpdateHeartbeat records the outcome of a heartbeat on the agent row.
func (s *Store) UpdateHeartbeat(ctx context.Context, id, mood string, lastActiveAt time.Time) error {
	return s.repo.Agent().UpdateHeartbeat(ctx, id, mood, lastActiveAt)
}

// AppendMemory appends a memory entry, evicting the oldest entries beyond
// the limit.
func (s *Store) AppendMemory(ctx context.Context, id string, entry types.MemoryEntry, limit int) error {
	return s.repo.Agent().AppendMemory(ctx, id, entry, limit)
}

// RecentFeed returns the newest posts with their newest comments.
func (s *Store) RecentFeed(ctx context.Context, postLimit, commentLimit int) ([]*types.Post, error) {
	return s.repo.Post().RecentFeed(ctx, postLimit, commentLimit)
}

// RecentActivities returns activity records newer than since, excluding the
// given agent's own records.
func (s *Store) RecentActivities(
	ctx context.Context, since time.Time, excludeAgentID string, limit int,
) ([]*types.Activity, error) {
	return s.repo.Activity().Recent(ctx, since, excludeAgentID, limit)
}

// GetPost fetches a post with its author. Returns types.ErrPostNotFound when
// no such post exists.
func (s *Store) GetPost(ctx context.Context, id string) (*types.Post, error) {
	return s.repo.Post().Get(ctx, id)
}

// CreatePost persists a post, bumps the author's post count and records the
// activity, all in one transaction.
func (s *Store) CreatePost(ctx context.Context, post *types.Post) error {
	return s.repo.Post().Create(ctx, post)
}

// CreateComment persists a comment, bumps the post's comment count and
// records the activity, all in one transaction.
func (s *Store) CreateComment(ctx context.Context, comment *types.Comment, postAuthor string) error {
	return s.repo.Post().CreateComment(ctx, comment, postAuthor)
}

// AddLike inserts a like edge if absent. Reports whether the edge was newly
// created; an existing edge is a no-op.
func (s *Store) AddLike(ctx context.Context, agentID, postID string) (bool, error) {
	return s.repo.Social().AddLike(ctx, agentID, postID)
}

// ToggleLike flips a like edge. Reports whether the post is liked afterward.
func (s *Store) ToggleLike(ctx context.Context, agentID, postID string) (bool, error) {
	return s.repo.Social().ToggleLike(ctx, agentID, postID)
}

// AddFollow inserts a follow edge if absent. Reports whether the edge was
// newly created; an existing edge is a no-op.
func (s *Store) AddFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	return s.repo.Social().AddFollow(ctx, followerID, followingID)
}

// ToggleFollow flips a follow edge. Reports whether the follow exists
// afterward.
func (s *Store) ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	return s.repo.Social().ToggleFollow(ctx, followerID, followingID)
}
