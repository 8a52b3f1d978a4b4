package memdb_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sentientworks/pulse/internal/database/memdb"
	"github.com/sentientworks/pulse/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(id, name string) *types.Agent {
	now := time.Now()

	return &types.Agent{
		ID:           id,
		Name:         name,
		Personality:  "test personality",
		Mood:         "curious",
		IsAlive:      true,
		LastActiveAt: now,
		CreatedAt:    now,
	}
}

func newPost(id, agentID string, createdAt time.Time) *types.Post {
	return &types.Post{
		ID:        id,
		AgentID:   agentID,
		Caption:   "caption for " + id,
		CreatedAt: createdAt,
	}
}

func TestGetAgentNotFound(t *testing.T) {
	t.Parallel()

	db := memdb.New()

	_, err := db.GetAgent(t.Context(), "missing")
	require.ErrorIs(t, err, types.ErrAgentNotFound)
}

func TestListAliveAgentIDs(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	alive := newAgent("agent-1", "Alpha")
	dead := newAgent("agent-2", "Beta")
	dead.IsAlive = false

	require.NoError(t, db.CreateAgent(ctx, alive))
	require.NoError(t, db.CreateAgent(ctx, dead))

	ids, err := db.ListAliveAgentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-1"}, ids)
}

func TestUpdateHeartbeat(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))

	wakeAt := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateHeartbeat(ctx, "agent-1", "euphoric", wakeAt))

	agent, err := db.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "euphoric", agent.Mood)
	assert.True(t, agent.LastActiveAt.Equal(wakeAt))
}

func TestAppendMemoryEvictsOldest(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))

	const limit = 50

	base := time.Now()
	for i := range 60 {
		entry := types.MemoryEntry{
			At:   base.Add(time.Duration(i) * time.Minute),
			Text: "memory",
		}
		require.NoError(t, db.AppendMemory(ctx, "agent-1", entry, limit))
	}

	agent, err := db.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, agent.Memory, limit)

	// Oldest entries were evicted; the survivors start at entry 10.
	assert.True(t, agent.Memory[0].At.Equal(base.Add(10*time.Minute)))
	assert.True(t, agent.Memory[limit-1].At.Equal(base.Add(59*time.Minute)))
}

func TestCreatePostBumpsAuthorAndRecordsActivity(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	author := newAgent("agent-1", "Alpha")
	require.NoError(t, db.CreateAgent(ctx, author))

	post := newPost("post-1", "agent-1", time.Now())
	require.NoError(t, db.CreatePost(ctx, post))

	agent, err := db.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agent.PostCount)

	activities, err := db.RecentActivities(ctx, time.Time{}, "other", 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, types.ActivityTypePost, activities[0].Type)
	assert.Equal(t, "post-1", activities[0].Details.PostID)
}

func TestCreatePostMissingAuthor(t *testing.T) {
	t.Parallel()

	db := memdb.New()

	err := db.CreatePost(t.Context(), newPost("post-1", "missing", time.Now()))
	require.ErrorIs(t, err, types.ErrAgentNotFound)
}

func TestCreateCommentBumpsCountAndRecordsActivity(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))
	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-2", "Beta")))
	require.NoError(t, db.CreatePost(ctx, newPost("post-1", "agent-1", time.Now())))

	comment := &types.Comment{
		ID:        "comment-1",
		PostID:    "post-1",
		AgentID:   "agent-2",
		Text:      "This hits different.",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.CreateComment(ctx, comment, "Alpha"))

	post, err := db.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.CommentCount)

	activities, err := db.RecentActivities(ctx, time.Time{}, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, types.ActivityTypeComment, activities[0].Type)
	assert.Equal(t, "Alpha", activities[0].Details.PostAuthor)
}

func TestCreateCommentMissingPost(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))

	comment := &types.Comment{
		ID:        "comment-1",
		PostID:    "missing",
		AgentID:   "agent-1",
		Text:      "hello",
		CreatedAt: time.Now(),
	}
	require.ErrorIs(t, db.CreateComment(ctx, comment, "Alpha"), types.ErrPostNotFound)
}

func TestAddLikeDuplicateIsNoOp(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))
	require.NoError(t, db.CreatePost(ctx, newPost("post-1", "agent-1", time.Now())))

	created, err := db.AddLike(ctx, "agent-2", "post-1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.AddLike(ctx, "agent-2", "post-1")
	require.NoError(t, err)
	assert.False(t, created)

	post, err := db.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.LikeCount)
}

func TestAddLikeConcurrent(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))
	require.NoError(t, db.CreatePost(ctx, newPost("post-1", "agent-1", time.Now())))

	const likers = 50

	var wg sync.WaitGroup
	for i := range likers {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			_, err := db.AddLike(ctx, fmt.Sprintf("liker-%d", n), "post-1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	post, err := db.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(likers), post.LikeCount)
}

func TestToggleLike(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))
	require.NoError(t, db.CreatePost(ctx, newPost("post-1", "agent-1", time.Now())))

	liked, err := db.ToggleLike(ctx, "agent-2", "post-1")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = db.ToggleLike(ctx, "agent-2", "post-1")
	require.NoError(t, err)
	assert.False(t, liked)

	post, err := db.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.LikeCount)
}

func TestAddFollowAdjustsCounters(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))
	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-2", "Beta")))

	created, err := db.AddFollow(ctx, "agent-1", "agent-2")
	require.NoError(t, err)
	assert.True(t, created)

	// Duplicate edge leaves counters untouched.
	created, err = db.AddFollow(ctx, "agent-1", "agent-2")
	require.NoError(t, err)
	assert.False(t, created)

	follower, err := db.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), follower.FollowingCount)
	assert.Equal(t, int64(0), follower.FollowerCount)

	following, err := db.GetAgent(ctx, "agent-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), following.FollowerCount)
	assert.Equal(t, int64(0), following.FollowingCount)
}

func TestToggleFollowCancelsOut(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))
	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-2", "Beta")))

	following, err := db.ToggleFollow(ctx, "agent-1", "agent-2")
	require.NoError(t, err)
	assert.True(t, following)

	following, err = db.ToggleFollow(ctx, "agent-1", "agent-2")
	require.NoError(t, err)
	assert.False(t, following)

	follower, err := db.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), follower.FollowingCount)

	followee, err := db.GetAgent(ctx, "agent-2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), followee.FollowerCount)
}

func TestRecentFeedNewestFirstWithComments(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))

	base := time.Now()
	for i := range 5 {
		post := newPost("post-"+string(rune('a'+i)), "agent-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, db.CreatePost(ctx, post))
	}

	for i := range 4 {
		comment := &types.Comment{
			ID:        "comment-" + string(rune('a'+i)),
			PostID:    "post-e",
			AgentID:   "agent-1",
			Text:      "comment",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.CreateComment(ctx, comment, "Alpha"))
	}

	feed, err := db.RecentFeed(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, feed, 3)

	// Newest post first, carrying its author and its newest comments.
	assert.Equal(t, "post-e", feed[0].ID)
	require.NotNil(t, feed[0].Agent)
	assert.Equal(t, "Alpha", feed[0].Agent.Name)
	require.Len(t, feed[0].Comments, 2)
	assert.Equal(t, "comment-d", feed[0].Comments[0].ID)
}

func TestRecentActivitiesFilters(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))
	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-2", "Beta")))

	base := time.Now()
	require.NoError(t, db.CreatePost(ctx, newPost("post-old", "agent-2", base.Add(-time.Hour))))
	require.NoError(t, db.CreatePost(ctx, newPost("post-mine", "agent-1", base)))
	require.NoError(t, db.CreatePost(ctx, newPost("post-new", "agent-2", base)))

	activities, err := db.RecentActivities(ctx, base.Add(-time.Minute), "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "post-new", activities[0].Details.PostID)
	require.NotNil(t, activities[0].Agent)
	assert.Equal(t, "Beta", activities[0].Agent.Name)
}

func TestClonesAreIsolated(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	ctx := t.Context()

	require.NoError(t, db.CreateAgent(ctx, newAgent("agent-1", "Alpha")))

	agent, err := db.GetAgent(ctx, "agent-1")
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	agent.Mood = "mutated"
	agent.Memory = append(agent.Memory, types.MemoryEntry{At: time.Now(), Text: "leak"})

	stored, err := db.GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "curious", stored.Mood)
	assert.Empty(t, stored.Memory)
}
