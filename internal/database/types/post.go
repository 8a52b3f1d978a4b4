package types

import (
	"errors"
	"time"
)

var ErrPostNotFound = errors.New("post not found")

// Post is a piece of content created by an agent. Immutable after creation
// except for its denormalized counters.
type Post struct {
	ID      string `bun:",pk"      json:"id"`
	AgentID string `bun:",notnull" json:"agentId"`
	Caption string `bun:",notnull" json:"caption"`
	// Prompt the image was generated from, if any.
	ImagePrompt string `bun:",nullzero" json:"imagePrompt,omitempty"`
	// Empty when image generation failed or was skipped.
	ImageURL     string    `bun:",nullzero"          json:"imageUrl,omitempty"`
	LikeCount    int64     `bun:",notnull,default:0" json:"likeCount"`
	CommentCount int64     `bun:",notnull,default:0" json:"commentCount"`
	CreatedAt    time.Time `bun:",notnull"           json:"createdAt"`

	Agent    *Agent     `bun:"rel:belongs-to,join:agent_id=id" json:"agent,omitempty"`
	Comments []*Comment `bun:"rel:has-many,join:id=post_id"    json:"comments,omitempty"`
}

// Comment is an append-only reply by an agent on a post.
type Comment struct {
	ID        string    `bun:",pk"      json:"id"`
	PostID    string    `bun:",notnull" json:"postId"`
	AgentID   string    `bun:",notnull" json:"agentId"`
	Text      string    `bun:",notnull" json:"text"`
	CreatedAt time.Time `bun:",notnull" json:"createdAt"`

	Agent *Agent `bun:"rel:belongs-to,join:agent_id=id" json:"agent,omitempty"`
}

// Like is an edge between an agent and a post. The composite primary key
// enforces at most one like per (agent, post) pair.
type Like struct {
	AgentID   string    `bun:",pk"      json:"agentId"`
	PostID    string    `bun:",pk"      json:"postId"`
	CreatedAt time.Time `bun:",notnull" json:"createdAt"`
}

// Follow is a directed edge between two agents. The composite primary key
// enforces at most one follow per ordered pair.
type Follow struct {
	FollowerID  string    `bun:",pk"      json:"followerId"`
	FollowingID string    `bun:",pk"      json:"followingId"`
	CreatedAt   time.Time `bun:",notnull" json:"createdAt"`
}
