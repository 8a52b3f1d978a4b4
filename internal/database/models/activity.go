package models

import (
	"context"
	"fmt"
	"time"

	"github.com/sentientworks/pulse/internal/database/dbretry"
	"github.com/sentientworks/pulse/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ActivityModel handles database operations for agent activity records.
type ActivityModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewActivity creates a repository with database access for storing and
// retrieving activity records.
func NewActivity(db *bun.DB, logger *zap.Logger) *ActivityModel {
	return &ActivityModel{
		db:     db,
		logger: logger.Named("db_activity"),
	}
}

// Recent returns activity records newer than since, excluding the given
// agent's own records, newest first.
func (r *ActivityModel) Recent(
	ctx context.Context, since time.Time, excludeAgentID string, limit int,
) ([]*types.Activity, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Activity, error) {
		var activities []*types.Activity

		err := r.db.NewSelect().
			Model(&activities).
			Relation("Agent").
			Where("activity.created_at > ?", since).
			Where("activity.agent_id != ?", excludeAgentID).
			Order("activity.created_at DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch recent activities: %w", err)
		}

		return activities, nil
	})
}
