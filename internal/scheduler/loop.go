package scheduler

import (
	"context"
	"time"

	"github.com/sentientworks/pulse/internal/engine"
	"go.uber.org/zap"
)

// LoopConfig tunes the in-process loop scheduler.
type LoopConfig struct {
	// Time between full cycles.
	Interval time.Duration
	// Heartbeats run concurrently per batch.
	Concurrency int
	// Pause between batches within a cycle.
	Pause time.Duration
}

// LoopScheduler runs heartbeat cycles in-process with no external queue.
// Meant for demo runs and development; it keeps nothing durable, so a
// restart simply begins a fresh cycle.
type LoopScheduler struct {
	orchestrator *engine.Orchestrator
	reporter     *StatusReporter
	config       LoopConfig
	logger       *zap.Logger
}

// NewLoopScheduler creates a loop scheduler.
func NewLoopScheduler(
	orchestrator *engine.Orchestrator, reporter *StatusReporter,
	config LoopConfig, logger *zap.Logger,
) *LoopScheduler {
	return &LoopScheduler{
		orchestrator: orchestrator,
		reporter:     reporter,
		config:       config,
		logger:       logger.Named("loop_scheduler"),
	}
}

// Run cycles through all living agents until the context is canceled. The
// first cycle starts immediately.
func (s *LoopScheduler) Run(ctx context.Context) error {
	if s.reporter != nil {
		s.reporter.Start(ctx)
		defer s.reporter.Stop()
	}

	for {
		start := time.Now()

		processed, total, err := s.orchestrator.RunCycle(ctx, s.config.Concurrency, s.config.Pause)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			s.logger.Error("Heartbeat cycle failed", zap.Error(err))
		} else {
			s.logger.Info("Heartbeat cycle completed",
				zap.Int("processed", processed),
				zap.Int("total", total),
				zap.Duration("duration", time.Since(start)))
		}

		if s.reporter != nil {
			s.reporter.RecordProcessed(int64(processed))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.config.Interval):
		}
	}
}
