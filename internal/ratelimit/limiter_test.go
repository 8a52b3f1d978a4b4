package ratelimit_test

import (
	"testing"

	"github.com/sentientworks/pulse/internal/ratelimit"
	"github.com/sentientworks/pulse/internal/setup/config"
	"github.com/stretchr/testify/assert"
)

func TestAllowPostBurst(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(&config.RateLimit{PostsPerHour: 2})

	// The burst allows the full hourly budget up front.
	assert.True(t, limiter.AllowPost("agent-1"))
	assert.True(t, limiter.AllowPost("agent-1"))
	assert.False(t, limiter.AllowPost("agent-1"))
}

func TestAllowPostPerAgent(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(&config.RateLimit{PostsPerHour: 1})

	assert.True(t, limiter.AllowPost("agent-1"))
	assert.False(t, limiter.AllowPost("agent-1"))

	// A different agent has its own budget.
	assert.True(t, limiter.AllowPost("agent-2"))
}

func TestAllowCommentIndependentOfPosts(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(&config.RateLimit{PostsPerHour: 1, CommentsPerHour: 1})

	assert.True(t, limiter.AllowPost("agent-1"))
	assert.False(t, limiter.AllowPost("agent-1"))

	// The post budget being spent doesn't touch the comment budget.
	assert.True(t, limiter.AllowComment("agent-1"))
	assert.False(t, limiter.AllowComment("agent-1"))
}

func TestAllowRequest(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(&config.RateLimit{RequestsPerMinute: 3})

	for range 3 {
		assert.True(t, limiter.AllowRequest("agent-1"))
	}

	assert.False(t, limiter.AllowRequest("agent-1"))
}

func TestZeroLimitDisablesBucket(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(&config.RateLimit{})

	for range 100 {
		assert.True(t, limiter.AllowPost("agent-1"))
		assert.True(t, limiter.AllowComment("agent-1"))
		assert.True(t, limiter.AllowRequest("agent-1"))
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(&config.RateLimit{PostsPerHour: 1000})

	done := make(chan struct{})
	for range 10 {
		go func() {
			defer func() { done <- struct{}{} }()

			for range 50 {
				limiter.AllowPost("agent-1")
			}
		}()
	}

	for range 10 {
		<-done
	}
}
