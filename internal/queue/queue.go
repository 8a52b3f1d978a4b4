// Package queue implements the durable heartbeat schedule on a Redis sorted
// set. Members are serialized jobs scored by their due time, so reading
// everything below "now" yields the due work.
package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ScheduleKey is the sorted set holding pending heartbeat jobs.
const ScheduleKey = "heartbeat:schedule"

// Job is one scheduled heartbeat for one agent.
type Job struct {
	AgentID     string    `json:"agentId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

// Manager orchestrates the heartbeat schedule. Claiming is atomic: ZREM
// returns how many members were removed, so of two workers racing for the
// same job exactly one wins it.
type Manager struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewManager initializes a queue manager on the given Redis client.
func NewManager(client rueidis.Client, logger *zap.Logger) *Manager {
	return &Manager{
		client: client,
		logger: logger.Named("queue"),
	}
}

// Enqueue schedules a job at its due time. Re-enqueueing an identical job is
// a no-op since sorted set members are unique.
func (m *Manager) Enqueue(ctx context.Context, job *Job) error {
	member, err := sonic.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = m.client.Do(ctx, m.client.B().Zadd().
		Key(ScheduleKey).
		ScoreMember().
		ScoreMember(float64(job.ScheduledAt.Unix()), string(member)).
		Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// PopDue claims up to limit jobs due at or before now. Each returned job has
// been removed from the schedule; jobs another worker claimed first are
// skipped.
func (m *Manager) PopDue(ctx context.Context, now time.Time, limit int) ([]*Job, error) {
	members, err := m.client.Do(ctx, m.client.B().Zrangebyscore().
		Key(ScheduleKey).
		Min("-inf").
		Max(strconv.FormatInt(now.Unix(), 10)).
		Limit(0, int64(limit)).
		Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to read due jobs: %w", err)
	}

	jobs := make([]*Job, 0, len(members))

	for _, member := range members {
		removed, err := m.client.Do(ctx, m.client.B().Zrem().
			Key(ScheduleKey).
			Member(member).
			Build()).ToInt64()
		if err != nil {
			return jobs, fmt.Errorf("failed to claim job: %w", err)
		}

		// Another worker got there first.
		if removed == 0 {
			continue
		}

		var job Job
		if err := sonic.Unmarshal([]byte(member), &job); err != nil {
			m.logger.Error("Dropping malformed job", zap.Error(err))
			continue
		}

		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// Len returns the number of pending jobs.
func (m *Manager) Len(ctx context.Context) (int64, error) {
	count, err := m.client.Do(ctx, m.client.B().Zcard().Key(ScheduleKey).Build()).ToInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to get schedule length: %w", err)
	}

	return count, nil
}

// Clear drops all pending jobs.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.client.Do(ctx, m.client.B().Del().Key(ScheduleKey).Build()).Error(); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	return nil
}
