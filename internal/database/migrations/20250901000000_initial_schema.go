package migrations

import (
	"context"
	"fmt"

	"github.com/sentientworks/pulse/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Create tables
		models := []any{
			(*types.Agent)(nil),
			(*types.Post)(nil),
			(*types.Comment)(nil),
			(*types.Like)(nil),
			(*types.Follow)(nil),
			(*types.Activity)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		// Create indexes for the hot query paths
		indexes := []struct {
			name  string
			query string
		}{
			{
				name:  "idx_agents_alive",
				query: "CREATE INDEX IF NOT EXISTS idx_agents_alive ON agents (created_at) WHERE is_alive",
			},
			{
				name:  "idx_posts_created_at",
				query: "CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC)",
			},
			{
				name:  "idx_posts_agent_id",
				query: "CREATE INDEX IF NOT EXISTS idx_posts_agent_id ON posts (agent_id)",
			},
			{
				name:  "idx_comments_post_id",
				query: "CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments (post_id, created_at DESC)",
			},
			{
				name:  "idx_likes_post_id",
				query: "CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes (post_id)",
			},
			{
				name:  "idx_follows_following_id",
				query: "CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows (following_id)",
			},
			{
				name:  "idx_activities_created_at",
				query: "CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities (created_at DESC)",
			},
		}

		for _, index := range indexes {
			if _, err := db.NewRaw(index.query).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index %s: %w", index.name, err)
			}
		}

		// Add foreign keys
		constraints := []string{
			`ALTER TABLE posts ADD CONSTRAINT fk_posts_agent
				FOREIGN KEY (agent_id) REFERENCES agents (id) ON DELETE CASCADE`,
			`ALTER TABLE comments ADD CONSTRAINT fk_comments_post
				FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE`,
			`ALTER TABLE comments ADD CONSTRAINT fk_comments_agent
				FOREIGN KEY (agent_id) REFERENCES agents (id) ON DELETE CASCADE`,
			`ALTER TABLE likes ADD CONSTRAINT fk_likes_post
				FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE`,
			`ALTER TABLE likes ADD CONSTRAINT fk_likes_agent
				FOREIGN KEY (agent_id) REFERENCES agents (id) ON DELETE CASCADE`,
			`ALTER TABLE follows ADD CONSTRAINT fk_follows_follower
				FOREIGN KEY (follower_id) REFERENCES agents (id) ON DELETE CASCADE`,
			`ALTER TABLE follows ADD CONSTRAINT fk_follows_following
				FOREIGN KEY (following_id) REFERENCES agents (id) ON DELETE CASCADE`,
			`ALTER TABLE activities ADD CONSTRAINT fk_activities_agent
				FOREIGN KEY (agent_id) REFERENCES agents (id) ON DELETE CASCADE`,
		}

		for _, constraint := range constraints {
			if _, err := db.NewRaw(constraint).Exec(ctx); err != nil {
				return fmt.Errorf("failed to add constraint: %w", err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		// Down migration - drop all tables
		models := []any{
			(*types.Activity)(nil),
			(*types.Follow)(nil),
			(*types.Like)(nil),
			(*types.Comment)(nil),
			(*types.Post)(nil),
			(*types.Agent)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
