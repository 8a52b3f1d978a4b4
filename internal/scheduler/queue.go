// Package scheduler decides when agents wake up. Two strategies exist: a
// durable Redis-backed queue for production and a simple in-process loop for
// demo and development runs.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sentientworks/pulse/internal/engine"
	"github.com/sentientworks/pulse/internal/queue"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// pollInterval is how often idle queue workers check for due jobs.
const pollInterval = time.Second

// QueueConfig tunes the queue scheduler.
type QueueConfig struct {
	// Time between scheduling passes, and the window jobs are spread over.
	Interval time.Duration
	// Fraction of the interval used as the random delay window.
	JitterFraction float64
	// Number of concurrent heartbeat workers.
	Concurrency int
}

// QueueScheduler drives heartbeats off the durable Redis schedule. A
// scheduling pass enqueues one jittered job per living agent; workers poll
// for due jobs and run them.
type QueueScheduler struct {
	queue        *queue.Manager
	store        engine.Store
	orchestrator *engine.Orchestrator
	reporter     *StatusReporter
	config       QueueConfig
	logger       *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewQueueScheduler creates a queue scheduler.
func NewQueueScheduler(
	q *queue.Manager, store engine.Store, orchestrator *engine.Orchestrator,
	reporter *StatusReporter, config QueueConfig, logger *zap.Logger,
) *QueueScheduler {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	return &QueueScheduler{
		queue:        q,
		store:        store,
		orchestrator: orchestrator,
		reporter:     reporter,
		config:       config,
		logger:       logger.Named("queue_scheduler"),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SchedulePass enqueues one heartbeat job per living agent, each delayed by
// a random amount up to the jitter window so agents don't all wake at once.
// Returns how many jobs were scheduled.
func (s *QueueScheduler) SchedulePass(ctx context.Context) (int, error) {
	ids, err := s.store.ListAliveAgentIDs(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Scheduling agent heartbeats", zap.Int("agents", len(ids)))

	now := time.Now()
	scheduled := 0

	for _, id := range ids {
		job := &queue.Job{
			AgentID:     id,
			ScheduledAt: now.Add(s.jitter()),
		}

		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.logger.Error("Failed to enqueue heartbeat",
				zap.String("agentID", id),
				zap.Error(err))

			continue
		}

		scheduled++
	}

	return scheduled, nil
}

// Run schedules and processes heartbeats until the context is canceled. An
// initial scheduling pass runs immediately; further passes run once per
// interval.
func (s *QueueScheduler) Run(ctx context.Context) error {
	if s.reporter != nil {
		s.reporter.Start(ctx)
		defer s.reporter.Stop()
	}

	if _, err := s.SchedulePass(ctx); err != nil {
		s.logger.Error("Initial scheduling pass failed", zap.Error(err))
	}

	p := pool.New().WithMaxGoroutines(s.config.Concurrency)
	for range s.config.Concurrency {
		p.Go(func() {
			s.runWorker(ctx)
		})
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Wait()
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SchedulePass(ctx); err != nil {
				s.logger.Error("Scheduling pass failed", zap.Error(err))
			}
		}
	}
}

// runWorker claims due jobs one at a time and runs their heartbeats. A
// panicking heartbeat is logged and the worker keeps going.
func (s *QueueScheduler) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobs, err := s.queue.PopDue(ctx, time.Now(), 1)
		if err != nil {
			s.logger.Error("Failed to poll schedule", zap.Error(err))
			s.sleep(ctx, pollInterval)

			continue
		}

		if len(jobs) == 0 {
			s.sleep(ctx, pollInterval)
			continue
		}

		for _, job := range jobs {
			s.process(ctx, job)
		}
	}
}

func (s *QueueScheduler) process(ctx context.Context, job *queue.Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Heartbeat panicked",
				zap.String("agentID", job.AgentID),
				zap.Any("panic", r))
		}
	}()

	processed, err := s.orchestrator.RunHeartbeat(ctx, job.AgentID)
	if err != nil {
		s.logger.Error("Heartbeat failed",
			zap.String("agentID", job.AgentID),
			zap.Error(err))

		return
	}

	if processed && s.reporter != nil {
		s.reporter.RecordProcessed(1)
	}
}

func (s *QueueScheduler) jitter() time.Duration {
	window := time.Duration(s.config.JitterFraction * float64(s.config.Interval))
	if window <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return time.Duration(s.rng.Float64() * float64(window))
}

func (s *QueueScheduler) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
