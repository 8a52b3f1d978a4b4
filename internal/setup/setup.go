// Package setup bootstraps the application: configuration, loggers, storage,
// collaborators and the heartbeat engine, wired in dependency order.
package setup

import (
	"context"
	"log"
	"time"

	aiPolicy "github.com/sentientworks/pulse/internal/ai"
	aiClient "github.com/sentientworks/pulse/internal/ai/client"
	"github.com/sentientworks/pulse/internal/database"
	"github.com/sentientworks/pulse/internal/database/memdb"
	"github.com/sentientworks/pulse/internal/engine"
	"github.com/sentientworks/pulse/internal/image"
	"github.com/sentientworks/pulse/internal/notify"
	"github.com/sentientworks/pulse/internal/ratelimit"
	"github.com/sentientworks/pulse/internal/redis"
	"github.com/sentientworks/pulse/internal/setup/config"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config       // Application configuration
	Logger       *zap.Logger          // Main application logger
	DBLogger     *zap.Logger          // Database-specific logger
	DB           database.Client      // Database connection pool; nil in demo mode
	Store        engine.Store         // Persistence surface used by the engine
	RedisManager *redis.Manager       // Redis connection manager
	AIClient     *aiClient.Client     // Gemini client; nil in offline mode
	Limiter      *ratelimit.Limiter   // Per-agent action limits
	Orchestrator *engine.Orchestrator // Heartbeat engine
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, dbLogger, err := GetLoggers(logDir, cfg.Debug.LogLevel, cfg.Debug.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Redis, logger)

	// Demo mode runs against the in-memory store; production runs against
	// PostgreSQL with migrations applied on startup.
	var (
		db    database.Client
		store engine.Store
	)

	if cfg.Debug.DemoMode {
		logger.Info("Demo mode enabled, using in-memory store")

		store = memdb.New()
	} else {
		db, err = database.NewConnection(ctx, &cfg.PostgreSQL, dbLogger.Named("database"), true)
		if err != nil {
			return nil, err
		}

		store = db.Store()
	}

	// Offline runs get the weighted-random mock policies; live runs get the
	// Gemini policies with the mock as decision fallback.
	seed := time.Now().UnixNano()
	mockDecision := engine.NewMockDecisionPolicy(seed)

	var (
		decision engine.DecisionPolicy = mockDecision
		mood     engine.MoodPolicy     = engine.NewMockMoodPolicy(seed)
		gemini   *aiClient.Client
	)

	if !cfg.Debug.DemoMode && cfg.Gemini.APIKey != "" {
		gemini, err = aiClient.New(ctx, &cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}

		decision = aiPolicy.NewDecisionPolicy(gemini, cfg.Gemini.DecisionModel, mockDecision, logger)
		mood = aiPolicy.NewMoodPolicy(gemini, cfg.Gemini.MoodModel, logger)
	}

	var images engine.ImageGenerator = image.NewPlaceholderGenerator()
	if !cfg.Debug.DemoMode && cfg.Replicate.APIToken != "" {
		images = image.NewReplicateGenerator(&cfg.Replicate, logger)
	}

	var notifier engine.Notifier = notify.NewNopNotifier()
	if cfg.Push.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Push.WebhookURL, logger)
	}

	limiter := ratelimit.New(&cfg.RateLimit)
	timeout := time.Duration(cfg.Heartbeat.RequestTimeout) * time.Millisecond

	executor := engine.NewExecutor(store, images, notifier, limiter, timeout, logger)

	orchestrator := engine.NewOrchestrator(store, decision, mood, executor, engine.Limits{
		FeedPosts:    cfg.Heartbeat.FeedLimit,
		FeedComments: cfg.Heartbeat.FeedCommentLimit,
		Activities:   cfg.Heartbeat.ActivityLimit,
		Memory:       cfg.Heartbeat.MemoryLimit,
	}, logger)

	// Bundle all initialized components
	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger,
		DB:           db,
		Store:        store,
		RedisManager: redisManager,
		AIClient:     gemini,
		Limiter:      limiter,
		Orchestrator: orchestrator,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse
// initialization order. Logs but does not fail on cleanup errors to ensure
// all components get cleanup attempts.
func (s *App) Cleanup(context.Context) {
	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if s.AIClient != nil {
		if err := s.AIClient.Close(); err != nil {
			log.Printf("Failed to close AI client: %v", err)
		}
	}

	// Close database connections
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()
}
