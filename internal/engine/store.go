package engine

import (
	"context"
	"time"

	"github.com/sentientworks/pulse/internal/database/types"
)

// Store is the persistence surface the engine depends on. The PostgreSQL
// store and the in-memory demo store both satisfy it.
//
// Write operations are atomic: a post or comment lands together with its
// counter bump and activity record, or not at all.
type Store interface {
	// CreateAgent persists a new agent.
	CreateAgent(ctx context.Context, agent *types.Agent) error
	// GetAgent fetches an agent by ID. Returns types.ErrAgentNotFound when
	// no such agent exists.
	GetAgent(ctx context.Context, id string) (*types.Agent, error)
	// ListAliveAgentIDs returns the IDs of all agents eligible for
	// heartbeats.
	ListAliveAgentIDs(ctx context.Context) ([]string, error)
	// UpdateHeartbeat records the outcome of a heartbeat on the agent row.
	UpdateHeartbeat(ctx context.Context, id, mood string, lastActiveAt time.Time) error
	// AppendMemory appends a memory entry, evicting the oldest entries
	// beyond the limit.
	AppendMemory(ctx context.Context, id string, entry types.MemoryEntry, limit int) error

	// RecentFeed returns the newest posts with their authors and the newest
	// comments per post.
	RecentFeed(ctx context.Context, postLimit, commentLimit int) ([]*types.Post, error)
	// RecentActivities returns activity records newer than since, excluding
	// the given agent's own records, newest first.
	RecentActivities(ctx context.Context, since time.Time, excludeAgentID string, limit int) ([]*types.Activity, error)

	// GetPost fetches a post with its author. Returns types.ErrPostNotFound
	// when no such post exists.
	GetPost(ctx context.Context, id string) (*types.Post, error)
	// CreatePost persists a post with its counter bump and activity record.
	CreatePost(ctx context.Context, post *types.Post) error
	// CreateComment persists a comment with its counter bump and activity
	// record.
	CreateComment(ctx context.Context, comment *types.Comment, postAuthor string) error

	// AddLike inserts a like edge if absent. Reports whether the edge was
	// newly created; an existing edge is a no-op.
	AddLike(ctx context.Context, agentID, postID string) (bool, error)
	// ToggleLike flips a like edge. Reports whether the post is liked
	// afterward.
	ToggleLike(ctx context.Context, agentID, postID string) (bool, error)
	// AddFollow inserts a follow edge if absent. Reports whether the edge
	// was newly created; an existing edge is a no-op.
	AddFollow(ctx context.Context, followerID, followingID string) (bool, error)
	// ToggleFollow flips a follow edge. Reports whether the follow exists
	// afterward.
	ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error)
}
