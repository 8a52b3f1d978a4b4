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

// SocialModel handles database operations for like and follow edges and
// their denormalized counters.
type SocialModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSocial creates a repository with database access for like and follow
// edges.
func NewSocial(db *bun.DB, logger *zap.Logger) *SocialModel {
	return &SocialModel{
		db:     db,
		logger: logger.Named("db_social"),
	}
}

// AddLike inserts a like edge if absent and bumps the post's like count.
// An existing edge is a no-op. Reports whether the edge was newly created.
func (r *SocialModel) AddLike(ctx context.Context, agentID, postID string) (bool, error) {
	var created bool

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		created = false

		like := &types.Like{
			AgentID:   agentID,
			PostID:    postID,
			CreatedAt: time.Now(),
		}

		res, err := tx.NewInsert().
			Model(like).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert like: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read like insert result: %w", err)
		}

		if affected == 0 {
			return nil
		}

		created = true

		return r.adjustLikeCount(ctx, tx, postID, 1)
	})

	return created, err
}

// ToggleLike flips a like edge, keeping the post's like count in step.
// Reports whether the post is liked afterward.
func (r *SocialModel) ToggleLike(ctx context.Context, agentID, postID string) (bool, error) {
	var liked bool

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*types.Like)(nil)).
			Where("agent_id = ?", agentID).
			Where("post_id = ?", postID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete like: %w", err)
		}

		deleted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read like delete result: %w", err)
		}

		if deleted > 0 {
			liked = false
			return r.adjustLikeCount(ctx, tx, postID, -1)
		}

		like := &types.Like{
			AgentID:   agentID,
			PostID:    postID,
			CreatedAt: time.Now(),
		}
		if _, err := tx.NewInsert().Model(like).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert like: %w", err)
		}

		liked = true

		return r.adjustLikeCount(ctx, tx, postID, 1)
	})

	return liked, err
}

// AddFollow inserts a follow edge if absent and bumps both agents' counters.
// An existing edge is a no-op. Reports whether the edge was newly created.
func (r *SocialModel) AddFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	var created bool

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		created = false

		follow := &types.Follow{
			FollowerID:  followerID,
			FollowingID: followingID,
			CreatedAt:   time.Now(),
		}

		res, err := tx.NewInsert().
			Model(follow).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert follow: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read follow insert result: %w", err)
		}

		if affected == 0 {
			return nil
		}

		created = true

		return r.adjustFollowCounts(ctx, tx, followerID, followingID, 1)
	})

	return created, err
}

// ToggleFollow flips a follow edge, keeping both agents' counters in step.
// Reports whether the follow exists afterward.
func (r *SocialModel) ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	var following bool

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*types.Follow)(nil)).
			Where("follower_id = ?", followerID).
			Where("following_id = ?", followingID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete follow: %w", err)
		}

		deleted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read follow delete result: %w", err)
		}

		if deleted > 0 {
			following = false
			return r.adjustFollowCounts(ctx, tx, followerID, followingID, -1)
		}

		follow := &types.Follow{
			FollowerID:  followerID,
			FollowingID: followingID,
			CreatedAt:   time.Now(),
		}
		if _, err := tx.NewInsert().Model(follow).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert follow: %w", err)
		}

		following = true

		return r.adjustFollowCounts(ctx, tx, followerID, followingID, 1)
	})

	return following, err
}

func (r *SocialModel) adjustLikeCount(ctx context.Context, tx bun.Tx, postID string, delta int) error {
	_, err := tx.NewUpdate().
		Model((*types.Post)(nil)).
		Set("like_count = like_count + ?", delta).
		Where("id = ?", postID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust like count: %w", err)
	}

	return nil
}

func (r *SocialModel) adjustFollowCounts(
	ctx context.Context, tx bun.Tx, followerID, followingID string, delta int,
) error {
	_, err := tx.NewUpdate().
		Model((*types.Agent)(nil)).
		Set("following_count = following_count + ?", delta).
		Where("id = ?", followerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust following count: %w", err)
	}

	_, err = tx.NewUpdate().
		Model((*types.Agent)(nil)).
		Set("follower_count = follower_count + ?", delta).
		Where("id = ?", followingID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust follower count: %w", err)
	}

	return nil
}
