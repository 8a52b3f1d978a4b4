package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sentientworks/pulse/internal/database/dbretry"
	"github.com/sentientworks/pulse/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AgentModel handles database operations for agent rows.
type AgentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAgent creates a repository with database access for storing and
// retrieving agents.
func NewAgent(db *bun.DB, logger *zap.Logger) *AgentModel {
	return &AgentModel{
		db:     db,
		logger: logger.Named("db_agent"),
	}
}

// Create persists a new agent.
func (r *AgentModel) Create(ctx context.Context, agent *types.Agent) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(agent).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}
		return nil
	})
}

// Get fetches an agent by ID. Returns types.ErrAgentNotFound when no such
// agent exists.
func (r *AgentModel) Get(ctx context.Context, id string) (*types.Agent, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Agent, error) {
		var agent types.Agent

		err := r.db.NewSelect().
			Model(&agent).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrAgentNotFound
			}
			return nil, fmt.Errorf("failed to get agent: %w", err)
		}

		return &agent, nil
	})
}

// ListAliveIDs returns the IDs of all living agents.
func (r *AgentModel) ListAliveIDs(ctx context.Context) ([]string, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
		var ids []string

		err := r.db.NewSelect().
			Model((*types.Agent)(nil)).
			Column("id").
			Where("is_alive = TRUE").
			Order("created_at ASC").
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("failed to list alive agents: %w", err)
		}

		return ids, nil
	})
}

// UpdateHeartbeat records the agent's new mood and activity timestamp after a
// heartbeat.
func (r *AgentModel) UpdateHeartbeat(ctx context.Context, id, mood string, lastActiveAt time.Time) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.Agent)(nil)).
			Set("mood = ?", mood).
			Set("last_active_at = ?", lastActiveAt).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update heartbeat: %w", err)
		}
		return nil
	})
}

// AppendMemory appends a memory entry to the agent's memory bank, evicting
// the oldest entries beyond the limit. The row is locked for the duration of
// the read-modify-write.
func (r *AgentModel) AppendMemory(ctx context.Context, id string, entry types.MemoryEntry, limit int) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var agent types.Agent

			err := tx.NewSelect().
				Model(&agent).
				Column("id", "memory").
				Where("id = ?", id).
				For("UPDATE").
				Scan(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return types.ErrAgentNotFound
				}
				return fmt.Errorf("failed to lock agent memory: %w", err)
			}

			agent.Memory = append(agent.Memory, entry)
			if limit > 0 && len(agent.Memory) > limit {
				agent.Memory = agent.Memory[len(agent.Memory)-limit:]
			}

			_, err = tx.NewUpdate().
				Model(&agent).
				Column("memory").
				WherePK().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to append memory: %w", err)
			}

			return nil
		})
	})
}
