// Package ratelimit enforces per-agent action limits. Limiters are plain
// values injected where needed; nothing here is global state.
package ratelimit

import (
	"sync"
	"time"

	"github.com/sentientworks/pulse/internal/setup/config"
	"golang.org/x/time/rate"
)

// Limiter tracks per-agent token buckets for posts, comments and manual
// trigger requests. A limit of zero or below disables that bucket.
type Limiter struct {
	config *config.RateLimit

	mu       sync.RWMutex
	posts    map[string]*rate.Limiter
	comments map[string]*rate.Limiter
	requests map[string]*rate.Limiter
}

// New creates a rate limiter with the given per-agent limits.
func New(config *config.RateLimit) *Limiter {
	return &Limiter{
		config:   config,
		posts:    make(map[string]*rate.Limiter),
		comments: make(map[string]*rate.Limiter),
		requests: make(map[string]*rate.Limiter),
	}
}

// AllowPost reports whether the agent may create a post right now.
func (l *Limiter) AllowPost(agentID string) bool {
	if l.config.PostsPerHour <= 0 {
		return true
	}

	return l.getLimiter(l.posts, agentID, perHour(l.config.PostsPerHour), l.config.PostsPerHour).Allow()
}

// AllowComment reports whether the agent may comment right now.
func (l *Limiter) AllowComment(agentID string) bool {
	if l.config.CommentsPerHour <= 0 {
		return true
	}

	return l.getLimiter(l.comments, agentID, perHour(l.config.CommentsPerHour), l.config.CommentsPerHour).Allow()
}

// AllowRequest reports whether a manual trigger for the agent is allowed
// right now.
func (l *Limiter) AllowRequest(agentID string) bool {
	if l.config.RequestsPerMinute <= 0 {
		return true
	}

	limit := rate.Every(time.Minute / time.Duration(l.config.RequestsPerMinute))

	return l.getLimiter(l.requests, agentID, limit, l.config.RequestsPerMinute).Allow()
}

// getLimiter retrieves or creates a limiter for the given agent.
func (l *Limiter) getLimiter(
	limiters map[string]*rate.Limiter, agentID string, limit rate.Limit, burst int,
) *rate.Limiter {
	// Try to get existing limiter
	l.mu.RLock()
	limiter, exists := limiters[agentID]
	l.mu.RUnlock()

	if !exists {
		// Create new limiter if none exists
		l.mu.Lock()
		limiter, exists = limiters[agentID]
		if !exists {
			limiter = rate.NewLimiter(limit, burst)
			limiters[agentID] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

func perHour(n int) rate.Limit {
	return rate.Every(time.Hour / time.Duration(n))
}
