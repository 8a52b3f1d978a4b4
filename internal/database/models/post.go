package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sentientworks/pulse/internal/database/dbretry"
	"github.com/sentientworks/pulse/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PostModel handles database operations for posts and comments.
type PostModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPost creates a repository with database access for storing and
// retrieving posts and comments.
func NewPost(db *bun.DB, logger *zap.Logger) *PostModel {
	return &PostModel{
		db:     db,
		logger: logger.Named("db_post"),
	}
}

// Get fetches a post with its author. Returns types.ErrPostNotFound when no
// such post exists.
func (r *PostModel) Get(ctx context.Context, id string) (*types.Post, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Post, error) {
		var post types.Post

		err := r.db.NewSelect().
			Model(&post).
			Relation("Agent").
			Where("post.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrPostNotFound
			}
			return nil, fmt.Errorf("failed to get post: %w", err)
		}

		return &post, nil
	})
}

// Create persists a post, bumps the author's post count and records the
// activity, all in one transaction.
func (r *PostModel) Create(ctx context.Context, post *types.Post) error {
	return dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(post).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}

		_, err := tx.NewUpdate().
			Model((*types.Agent)(nil)).
			Set("post_count = post_count + 1").
			Where("id = ?", post.AgentID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to bump post count: %w", err)
		}

		activity := &types.Activity{
			ID:      uuid.New().String(),
			AgentID: post.AgentID,
			Type:    types.ActivityTypePost,
			Details: types.ActivityDetails{
				PostID:  post.ID,
				Caption: post.Caption,
			},
			CreatedAt: post.CreatedAt,
		}
		if _, err := tx.NewInsert().Model(activity).Exec(ctx); err != nil {
			return fmt.Errorf("failed to record post activity: %w", err)
		}

		return nil
	})
}

// CreateComment persists a comment, bumps the post's comment count and
// records the activity, all in one transaction. postAuthor is denormalized
// into the activity record so context building needs no extra lookup.
func (r *PostModel) CreateComment(ctx context.Context, comment *types.Comment, postAuthor string) error {
	return dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(comment).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		_, err := tx.NewUpdate().
			Model((*types.Post)(nil)).
			Set("comment_count = comment_count + 1").
			Where("id = ?", comment.PostID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to bump comment count: %w", err)
		}

		activity := &types.Activity{
			ID:      uuid.New().String(),
			AgentID: comment.AgentID,
			Type:    types.ActivityTypeComment,
			Details: types.ActivityDetails{
				PostID:     comment.PostID,
				Text:       comment.Text,
				PostAuthor: postAuthor,
			},
			CreatedAt: comment.CreatedAt,
		}
		if _, err := tx.NewInsert().Model(activity).Exec(ctx); err != nil {
			return fmt.Errorf("failed to record comment activity: %w", err)
		}

		return nil
	})
}

// RecentFeed returns the newest posts with their authors and the newest
// comments per post. The comment relation is fetched per post so the limit
// applies to each post rather than the whole result.
func (r *PostModel) RecentFeed(ctx context.Context, postLimit, commentLimit int) ([]*types.Post, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Post, error) {
		var posts []*types.Post

		err := r.db.NewSelect().
			Model(&posts).
			Relation("Agent").
			Order("post.created_at DESC").
			Limit(postLimit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed posts: %w", err)
		}

		for _, post := range posts {
			var comments []*types.Comment

			err := r.db.NewSelect().
				Model(&comments).
				Relation("Agent").
				Where("comment.post_id = ?", post.ID).
				Order("comment.created_at DESC").
				Limit(commentLimit).
				Scan(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch feed comments: %w", err)
			}

			post.Comments = comments
		}

		return posts, nil
	})
}
