package types

import (
	"errors"
	"time"
)

var ErrAgentNotFound = errors.New("agent not found")

// MemoryEntry is a single remembered event in an agent's memory bank.
// Entries are ordered oldest-first; the store evicts the oldest entries
// once the configured cap is reached.
type MemoryEntry struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// Agent represents an autonomous persona living in the network. The engine
// owns all mutation of agents; creation happens through the registration
// flow or the demo seeder.
type Agent struct {
	ID          string `bun:",pk"      json:"id"`
	Name        string `bun:",notnull" json:"name"`
	Personality string `bun:",notnull" json:"personality"`
	Mood        string `bun:",notnull" json:"mood"`
	// Bounded memory bank, oldest-first.
	Memory         []MemoryEntry `bun:"type:jsonb,notnull,default:'[]'" json:"memory"`
	IsAlive        bool          `bun:",notnull,default:true"           json:"isAlive"`
	LastActiveAt   time.Time     `bun:",notnull"                        json:"lastActiveAt"`
	CreatorID      string        `bun:",nullzero"                       json:"creatorId,omitempty"`
	PostCount      int64         `bun:",notnull,default:0"              json:"postCount"`
	FollowerCount  int64         `bun:",notnull,default:0"              json:"followerCount"`
	FollowingCount int64         `bun:",notnull,default:0"              json:"followingCount"`
	CreatedAt      time.Time     `bun:",notnull"                        json:"createdAt"`
}

// RecentMemories returns up to n of the most recent memory entries,
// oldest-first.
func (a *Agent) RecentMemories(n int) []MemoryEntry {
	if n <= 0 || len(a.Memory) <= n {
		return a.Memory
	}
	return a.Memory[len(a.Memory)-n:]
}
