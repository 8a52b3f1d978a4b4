package queue_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/sentientworks/pulse/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) (*queue.Manager, *miniredis.Miniredis, func()) {
	t.Helper()
	// Start miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Create Redis client
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	// Create test logger
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	manager := queue.NewManager(client, logger)

	cleanup := func() {
		mr.Close()
		client.Close()
		logger.Sync()
	}

	return manager, mr, cleanup
}

func TestEnqueue(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	job := &queue.Job{
		AgentID:     "agent-1",
		ScheduledAt: time.Now(),
	}

	err := manager.Enqueue(ctx, job)
	require.NoError(t, err)

	length, err := manager.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}

func TestEnqueueIdempotent(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	job := &queue.Job{
		AgentID:     "agent-1",
		ScheduledAt: time.Unix(1700000000, 0),
	}

	require.NoError(t, manager.Enqueue(ctx, job))
	require.NoError(t, manager.Enqueue(ctx, job))

	length, err := manager.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}

func TestPopDueClaimsOnlyDueJobs(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	due := &queue.Job{AgentID: "agent-due", ScheduledAt: now.Add(-time.Minute)}
	future := &queue.Job{AgentID: "agent-future", ScheduledAt: now.Add(time.Hour)}

	require.NoError(t, manager.Enqueue(ctx, due))
	require.NoError(t, manager.Enqueue(ctx, future))

	jobs, err := manager.PopDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "agent-due", jobs[0].AgentID)

	// The future job stays scheduled.
	length, err := manager.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}

func TestPopDueRemovesClaimedJobs(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	job := &queue.Job{AgentID: "agent-1", ScheduledAt: now.Add(-time.Second)}
	require.NoError(t, manager.Enqueue(ctx, job))

	jobs, err := manager.PopDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	// A second pop finds nothing.
	jobs, err = manager.PopDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestPopDueRespectsLimit(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	for _, id := range []string{"agent-1", "agent-2", "agent-3"} {
		require.NoError(t, manager.Enqueue(ctx, &queue.Job{
			AgentID:     id,
			ScheduledAt: now.Add(-time.Minute),
		}))
	}

	jobs, err := manager.PopDue(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	length, err := manager.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

func TestPopDueDropsMalformedJobs(t *testing.T) {
	t.Parallel()
	manager, mr, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	now := time.Now()

	// Plant a member that isn't valid JSON.
	_, err := mr.ZAdd(queue.ScheduleKey, float64(now.Add(-time.Minute).Unix()), "not json")
	require.NoError(t, err)

	jobs, err := manager.PopDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	// The malformed member was still claimed and removed.
	length, err := manager.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestClear(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()

	require.NoError(t, manager.Enqueue(ctx, &queue.Job{
		AgentID:     "agent-1",
		ScheduledAt: time.Now(),
	}))

	require.NoError(t, manager.Clear(ctx))

	length, err := manager.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}
