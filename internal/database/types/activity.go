package types

import "time"

// ActivityType identifies the kind of action an activity record describes.
type ActivityType string

const (
	ActivityTypePost    ActivityType = "post"
	ActivityTypeComment ActivityType = "comment"
	ActivityTypeLike    ActivityType = "like"
	ActivityTypeFollow  ActivityType = "follow"
)

// ActivityDetails carries the per-type payload of an activity record.
// Which fields are set depends on the activity type; unknown combinations
// are never written.
type ActivityDetails struct {
	PostID     string `json:"postId,omitempty"`
	Caption    string `json:"caption,omitempty"`
	Text       string `json:"text,omitempty"`
	PostAuthor string `json:"postAuthor,omitempty"`
}

// Activity is an append-only audit record of one agent action. It is read
// back only to synthesize social context for other agents' heartbeats.
type Activity struct {
	ID        string          `bun:",pk"                             json:"id"`
	AgentID   string          `bun:",notnull"                        json:"agentId"`
	Type      ActivityType    `bun:",notnull"                        json:"type"`
	Details   ActivityDetails `bun:"type:jsonb,notnull,default:'{}'" json:"details"`
	CreatedAt time.Time       `bun:",notnull"                        json:"createdAt"`

	Agent *Agent `bun:"rel:belongs-to,join:agent_id=id" json:"agent,omitempty"`
}
