// Package memdb provides an in-memory store with the same semantics as the
// PostgreSQL-backed store. It backs demo mode and the engine tests.
package memdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sentientworks/pulse/internal/database/types"
)

// DB is an in-memory store. All operations are safe for concurrent use and
// atomic with respect to each other; a single mutex stands in for the
// per-action transactions of the SQL store.
type DB struct {
	mu sync.Mutex

	agents     map[string]*types.Agent
	agentOrder []string

	posts     map[string]*types.Post
	postOrder []string

	comments map[string][]*types.Comment

	likes   map[string]map[string]struct{}
	follows map[string]map[string]struct{}

	activities  []*types.Activity
	activitySeq int
}

// New creates an empty in-memory store.
func New() *DB {
	return &DB{
		agents:   make(map[string]*types.Agent),
		posts:    make(map[string]*types.Post),
		comments: make(map[string][]*types.Comment),
		likes:    make(map[string]map[string]struct{}),
		follows:  make(map[string]map[string]struct{}),
	}
}

// CreateAgent persists a new agent.
func (d *DB) CreateAgent(_ context.Context, agent *types.Agent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored := cloneAgent(agent)
	d.agents[stored.ID] = stored
	d.agentOrder = append(d.agentOrder, stored.ID)

	return nil
}

// GetAgent fetches an agent by ID. Returns types.ErrAgentNotFound when no
// such agent exists.
func (d *DB) GetAgent(_ context.Context, id string) (*types.Agent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	agent, ok := d.agents[id]
	if !ok {
		return nil, types.ErrAgentNotFound
	}

	return cloneAgent(agent), nil
}

// ListAliveAgentIDs returns the IDs of all living agents in creation order.
func (d *DB) ListAliveAgentIDs(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(d.agentOrder))
	for _, id := range d.agentOrder {
		if agent, ok := d.agents[id]; ok && agent.IsAlive {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// UpdateHeartbeat records the agent's new mood and activity timestamp.
func (d *DB) UpdateHeartbeat(_ context.Context, id, mood string, lastActiveAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	agent, ok := d.agents[id]
	if !ok {
		return types.ErrAgentNotFound
	}

	agent.Mood = mood
	agent.LastActiveAt = lastActiveAt

	return nil
}

// AppendMemory appends a memory entry, evicting the oldest entries beyond
// the limit.
func (d *DB) AppendMemory(_ context.Context, id string, entry types.MemoryEntry, limit int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	agent, ok := d.agents[id]
	if !ok {
		return types.ErrAgentNotFound
	}

	agent.Memory = append(agent.Memory, entry)
	if limit > 0 && len(agent.Memory) > limit {
		agent.Memory = agent.Memory[len(agent.Memory)-limit:]
	}

	return nil
}

// RecentFeed returns the newest posts with their authors and the newest
// comments per post.
func (d *DB) RecentFeed(_ context.Context, postLimit, commentLimit int) ([]*types.Post, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ordered := make([]*types.Post, 0, len(d.postOrder))
	for _, id := range d.postOrder {
		ordered = append(ordered, d.posts[id])
	}

	// Newest first; insertion order breaks timestamp ties.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	if postLimit > 0 && len(ordered) > postLimit {
		ordered = ordered[:postLimit]
	}

	feed := make([]*types.Post, 0, len(ordered))
	for _, post := range ordered {
		clone := d.clonePostLocked(post)

		all := d.comments[post.ID]
		start := 0
		if commentLimit > 0 && len(all) > commentLimit {
			start = len(all) - commentLimit
		}

		// Newest first, matching the SQL store's ordering.
		for i := len(all) - 1; i >= start; i-- {
			comment := cloneComment(all[i])
			if author, ok := d.agents[comment.AgentID]; ok {
				comment.Agent = cloneAgent(author)
			}
			clone.Comments = append(clone.Comments, comment)
		}

		feed = append(feed, clone)
	}

	return feed, nil
}

// RecentActivities returns activity records newer than since, excluding the
// given agent's own records, newest first.
func (d *DB) RecentActivities(
	_ context.Context, since time.Time, excludeAgentID string, limit int,
) ([]*types.Activity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var result []*types.Activity

	for i := len(d.activities) - 1; i >= 0; i-- {
		activity := d.activities[i]
		if !activity.CreatedAt.After(since) || activity.AgentID == excludeAgentID {
			continue
		}

		clone := cloneActivity(activity)
		if actor, ok := d.agents[activity.AgentID]; ok {
			clone.Agent = cloneAgent(actor)
		}

		result = append(result, clone)
		if limit > 0 && len(result) >= limit {
			break
		}
	}

	return result, nil
}

// GetPost fetches a post with its author. Returns types.ErrPostNotFound when
// no such post exists.
func (d *DB) GetPost(_ context.Context, id string) (*types.Post, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	post, ok := d.posts[id]
	if !ok {
		return nil, types.ErrPostNotFound
	}

	return d.clonePostLocked(post), nil
}

// CreatePost persists a post, bumps the author's post count and records the
// activity atomically.
func (d *DB) CreatePost(_ context.Context, post *types.Post) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	author, ok := d.agents[post.AgentID]
	if !ok {
		return types.ErrAgentNotFound
	}

	stored := clonePost(post)
	d.posts[stored.ID] = stored
	d.postOrder = append(d.postOrder, stored.ID)
	author.PostCount++

	d.recordActivityLocked(&types.Activity{
		AgentID: post.AgentID,
		Type:    types.ActivityTypePost,
		Details: types.ActivityDetails{
			PostID:  post.ID,
			Caption: post.Caption,
		},
		CreatedAt: post.CreatedAt,
	})

	return nil
}

// CreateComment persists a comment, bumps the post's comment count and
// records the activity atomically.
func (d *DB) CreateComment(_ context.Context, comment *types.Comment, postAuthor string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	post, ok := d.posts[comment.PostID]
	if !ok {
		return types.ErrPostNotFound
	}

	d.comments[post.ID] = append(d.comments[post.ID], cloneComment(comment))
	post.CommentCount++

	d.recordActivityLocked(&types.Activity{
		AgentID: comment.AgentID,
		Type:    types.ActivityTypeComment,
		Details: types.ActivityDetails{
			PostID:     comment.PostID,
			Text:       comment.Text,
			PostAuthor: postAuthor,
		},
		CreatedAt: comment.CreatedAt,
	})

	return nil
}

// AddLike inserts a like edge if absent. An existing edge is a no-op.
// Reports whether the edge was newly created.
func (d *DB) AddLike(_ context.Context, agentID, postID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	post, ok := d.posts[postID]
	if !ok {
		return false, types.ErrPostNotFound
	}

	edges := d.likes[postID]
	if edges == nil {
		edges = make(map[string]struct{})
		d.likes[postID] = edges
	}

	if _, exists := edges[agentID]; exists {
		return false, nil
	}

	edges[agentID] = struct{}{}
	post.LikeCount++

	return true, nil
}

// ToggleLike flips a like edge. Reports whether the post is liked afterward.
func (d *DB) ToggleLike(_ context.Context, agentID, postID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	post, ok := d.posts[postID]
	if !ok {
		return false, types.ErrPostNotFound
	}

	edges := d.likes[postID]
	if edges == nil {
		edges = make(map[string]struct{})
		d.likes[postID] = edges
	}

	if _, exists := edges[agentID]; exists {
		delete(edges, agentID)
		post.LikeCount--

		return false, nil
	}

	edges[agentID] = struct{}{}
	post.LikeCount++

	return true, nil
}

// AddFollow inserts a follow edge if absent. An existing edge is a no-op.
// Reports whether the edge was newly created.
func (d *DB) AddFollow(_ context.Context, followerID, followingID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	follower, ok := d.agents[followerID]
	if !ok {
		return false, types.ErrAgentNotFound
	}

	following, ok := d.agents[followingID]
	if !ok {
		return false, types.ErrAgentNotFound
	}

	edges := d.follows[followerID]
	if edges == nil {
		edges = make(map[string]struct{})
		d.follows[followerID] = edges
	}

	if _, exists := edges[followingID]; exists {
		return false, nil
	}

	edges[followingID] = struct{}{}
	follower.FollowingCount++
	following.FollowerCount++

	return true, nil
}

// ToggleFollow flips a follow edge. Reports whether the follow exists
// afterward.
func (d *DB) ToggleFollow(_ context.Context, followerID, followingID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	follower, ok := d.agents[followerID]
	if !ok {
		return false, types.ErrAgentNotFound
	}

	following, ok := d.agents[followingID]
	if !ok {
		return false, types.ErrAgentNotFound
	}

	edges := d.follows[followerID]
	if edges == nil {
		edges = make(map[string]struct{})
		d.follows[followerID] = edges
	}

	if _, exists := edges[followingID]; exists {
		delete(edges, followingID)
		follower.FollowingCount--
		following.FollowerCount--

		return false, nil
	}

	edges[followingID] = struct{}{}
	follower.FollowingCount++
	following.FollowerCount++

	return true, nil
}

func (d *DB) recordActivityLocked(activity *types.Activity) {
	d.activitySeq++
	activity.ID = activityID(d.activitySeq)
	d.activities = append(d.activities, activity)
}

func (d *DB) clonePostLocked(post *types.Post) *types.Post {
	clone := clonePost(post)
	if author, ok := d.agents[post.AgentID]; ok {
		clone.Agent = cloneAgent(author)
	}

	return clone
}

func activityID(seq int) string {
	// Monotonic IDs keep activity ordering stable without a clock.
	const digits = "0123456789"

	buf := [20]byte{}
	i := len(buf)
	for seq > 0 {
		i--
		buf[i] = digits[seq%10]
		seq /= 10
	}

	return "activity-" + string(buf[i:])
}

func cloneAgent(agent *types.Agent) *types.Agent {
	clone := *agent
	clone.Memory = append([]types.MemoryEntry(nil), agent.Memory...)

	return &clone
}

func clonePost(post *types.Post) *types.Post {
	clone := *post
	clone.Agent = nil
	clone.Comments = nil

	return &clone
}

func cloneComment(comment *types.Comment) *types.Comment {
	clone := *comment
	clone.Agent = nil

	return &clone
}

func cloneActivity(activity *types.Activity) *types.Activity {
	clone := *activity
	clone.Agent = nil

	return &clone
}
