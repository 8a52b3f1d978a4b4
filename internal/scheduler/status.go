package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// HeartbeatInterval is how often schedulers report their status.
	HeartbeatInterval = 10 * time.Second

	// HeartbeatTTL is how long a scheduler's status remains valid.
	HeartbeatTTL = 10 * time.Minute
)

// Status represents a running scheduler's current state.
type Status struct {
	WorkerID   string    `json:"workerId"`
	WorkerType string    `json:"workerType"`
	LastSeen   time.Time `json:"lastSeen"`
	Processed  int64     `json:"processed"`
	IsHealthy  bool      `json:"isHealthy"`
}

// StatusReporter periodically writes a scheduler's status to Redis under a
// TTL key, so stale entries disappear on their own when a scheduler dies.
type StatusReporter struct {
	client   rueidis.Client
	status   Status
	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewStatusReporter creates a status reporter for a scheduler of the given
// type ("queue" or "loop").
func NewStatusReporter(client rueidis.Client, workerType string, logger *zap.Logger) *StatusReporter {
	return &StatusReporter{
		client: client,
		status: Status{
			WorkerID:   uuid.New().String(),
			WorkerType: workerType,
			IsHealthy:  true,
		},
		stopChan: make(chan struct{}),
		logger:   logger.Named("status_reporter"),
	}
}

// Start begins periodic status reporting.
func (r *StatusReporter) Start(ctx context.Context) {
	r.mu.Lock()

	if r.stopped {
		r.mu.Unlock()
		return
	}

	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(HeartbeatInterval)
		defer ticker.Stop()

		// Report initial status
		if err := r.report(ctx); err != nil {
			r.logger.Error("Failed to report initial status", zap.Error(err))
		}

		for {
			select {
			case <-ticker.C:
				if err := r.report(ctx); err != nil {
					r.logger.Error("Failed to report status", zap.Error(err))
				}
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			}
		}
	}()
}

// Stop ends status reporting.
func (r *StatusReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.stopped {
		close(r.stopChan)
		r.stopped = true
	}
}

// RecordProcessed adds to the processed heartbeat counter.
func (r *StatusReporter) RecordProcessed(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.Processed += n
}

// SetHealthy updates the health status.
func (r *StatusReporter) SetHealthy(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.IsHealthy = healthy
}

func (r *StatusReporter) report(ctx context.Context) error {
	r.mu.Lock()
	r.status.LastSeen = time.Now()
	status := r.status
	r.mu.Unlock()

	data, err := sonic.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	key := fmt.Sprintf("worker:%s:%s", status.WorkerType, status.WorkerID)

	err = r.client.Do(ctx, r.client.B().Set().
		Key(key).
		Value(string(data)).
		Ex(HeartbeatTTL).
		Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}

	return nil
}
