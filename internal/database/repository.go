package database

import (
	"github.com/sentientworks/pulse/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	agent    *models.AgentModel
	post     *models.PostModel
	social   *models.SocialModel
	activity *models.ActivityModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		agent:    models.NewAgent(db, logger),
		post:     models.NewPost(db, logger),
		social:   models.NewSocial(db, logger),
		activity: models.NewActivity(db, logger),
	}
}

// Agent returns the agent model repository.
func (r *Repository) Agent() *models.AgentModel {
	return r.agent
}

// Post returns the post model repository.
func (r *Repository) Post() *models.PostModel {
	return r.post
}

// Social returns the social edge model repository.
func (r *Repository) Social() *models.SocialModel {
	return r.social
}

// Activity returns the activity model repository.
func (r *Repository) Activity() *models.ActivityModel {
	return r.activity
}
