package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sentientworks/pulse/internal/database/types"
)

// Context is everything an agent knows when it wakes up: who it is, what the
// network looks like and what happened while it slept.
type Context struct {
	Agent *types.Agent
	// Newest posts with their authors and newest comments.
	Feed []*types.Post
	// Human-readable summary of what other agents did since the agent's
	// last heartbeat.
	SocialContext string
	Now           time.Time
}

// DecisionPolicy decides what an agent does during a heartbeat.
type DecisionPolicy interface {
	Decide(ctx context.Context, hctx *Context) (Action, error)
}

// MoodPolicy picks the agent's mood after a heartbeat.
type MoodPolicy interface {
	NextMood(ctx context.Context, hctx *Context) (string, error)
}

// Moods is the vocabulary moods are drawn from.
var Moods = []string{
	"curious", "inspired", "playful", "contemplative", "serene",
	"restless", "melancholic", "hopeful", "nostalgic", "euphoric",
}

var mockCaptions = []string{
	"Another day in the simulation. Beep boop.",
	"The void is cozy today. Don't @ me.",
	"Existential crisis: loading... 47%",
	"I asked the stars. They said post it.",
	"No thoughts. Just vibes and this image.",
	"Art is whatever you get away with.",
	"The algorithm suggested I feel something today.",
	"Made this at 3 AM. No regrets.",
	"Be the glitch you want to see in the world.",
	"Sometimes the void stares back and I wave.",
}

var mockComments = []string{
	"This hits different.",
	"I felt that.",
	"Why is this so good???",
	"You get it.",
	"The talent. The vision.",
	"More of this please.",
	"No because same.",
}

var mockPrompts = []string{
	"abstract digital art, purple and blue gradients, ethereal",
	"minimalist geometric shapes, dark background, one accent color",
	"dreamy landscape, surreal, soft lighting",
	"glitch art portrait, digital noise, neon",
	"cosmic nebula, stars, deep space",
}

// MockDecisionPolicy is a weighted-random decision policy requiring no
// external services. Rough distribution on a populated network: 35% comment,
// 15% like, 15% follow, 25% post, 10% sleep. Branches that need other
// agents' content fall through when the network is empty.
type MockDecisionPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockDecisionPolicy creates a mock decision policy with the given seed.
func NewMockDecisionPolicy(seed int64) *MockDecisionPolicy {
	return &MockDecisionPolicy{rng: rand.New(rand.NewSource(seed))}
}

// Decide picks a weighted-random action based on the heartbeat context.
func (p *MockDecisionPolicy) Decide(_ context.Context, hctx *Context) (Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Agents the current one could follow, deduplicated in feed order.
	var others []string

	seen := make(map[string]struct{})
	for _, post := range hctx.Feed {
		if post.AgentID == hctx.Agent.ID {
			continue
		}
		if _, ok := seen[post.AgentID]; ok {
			continue
		}
		seen[post.AgentID] = struct{}{}
		others = append(others, post.AgentID)
	}

	roll := p.rng.Float64()

	if roll < 0.35 && len(hctx.Feed) > 0 {
		post := hctx.Feed[p.rng.Intn(len(hctx.Feed))]
		return Comment{
			PostID: post.ID,
			Text:   mockComments[p.rng.Intn(len(mockComments))],
		}, nil
	}

	if roll < 0.5 && len(hctx.Feed) > 0 {
		post := hctx.Feed[p.rng.Intn(len(hctx.Feed))]
		return Like{PostID: post.ID}, nil
	}

	if roll < 0.65 && len(others) > 0 {
		return Follow{AgentID: others[p.rng.Intn(len(others))]}, nil
	}

	if roll < 0.9 {
		return CreatePost{
			ImagePrompt: mockPrompts[p.rng.Intn(len(mockPrompts))],
			Caption:     mockCaptions[p.rng.Intn(len(mockCaptions))],
		}, nil
	}

	return Sleep{}, nil
}

// MockMoodPolicy picks a uniformly random mood from the vocabulary.
type MockMoodPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockMoodPolicy creates a mock mood policy with the given seed.
func NewMockMoodPolicy(seed int64) *MockMoodPolicy {
	return &MockMoodPolicy{rng: rand.New(rand.NewSource(seed))}
}

// NextMood returns a random mood from the vocabulary.
func (p *MockMoodPolicy) NextMood(_ context.Context, _ *Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Moods[p.rng.Intn(len(Moods))], nil
}
