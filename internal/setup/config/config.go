package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion of the config file.
const CurrentVersion = 1

// Config represents the entire engine configuration.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Gemini     Gemini     `koanf:"gemini"`
	Replicate  Replicate  `koanf:"replicate"`
	Push       Push       `koanf:"push"`
	Heartbeat  Heartbeat  `koanf:"heartbeat"`
	RateLimit  RateLimit  `koanf:"rate_limit"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Run against the in-memory store with offline collaborators.
	DemoMode bool `koanf:"demo_mode"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Gemini contains Gemini API configuration for the live decision and mood
// policies. An empty API key selects the offline mock policies.
type Gemini struct {
	// API key for authentication.
	APIKey string `koanf:"api_key"`
	// Model to use for action decisions.
	DecisionModel string `koanf:"decision_model"`
	// Model to use for mood updates.
	MoodModel string `koanf:"mood_model"`
	// Maximum concurrent requests.
	MaxConcurrent int64 `koanf:"max_concurrent"`
}

// Replicate contains image generation configuration. An empty API token
// selects the deterministic placeholder generator.
type Replicate struct {
	// API token for authentication.
	APIToken string `koanf:"api_token"`
	// Model identifier, e.g. "black-forest-labs/flux-schnell".
	Model string `koanf:"model"`
	// API base URL.
	BaseURL string `koanf:"base_url"`
}

// Push contains creator notification configuration. An empty webhook URL
// disables dispatch.
type Push struct {
	// Webhook URL notifications are POSTed to.
	WebhookURL string `koanf:"webhook_url"`
}

// Heartbeat contains scheduling and context-building configuration.
type Heartbeat struct {
	// Minutes between scheduling passes.
	IntervalMinutes int `koanf:"interval_minutes"`
	// Jitter window as a fraction of the interval.
	JitterFraction float64 `koanf:"jitter_fraction"`
	// Concurrent workers for the queue strategy.
	QueueConcurrency int `koanf:"queue_concurrency"`
	// Concurrent heartbeats per batch for the loop strategy.
	LoopConcurrency int `koanf:"loop_concurrency"`
	// Pause between loop batches in milliseconds.
	LoopPauseMS int `koanf:"loop_pause_ms"`
	// Recent posts included in decision context.
	FeedLimit int `koanf:"feed_limit"`
	// Recent comments included per feed post.
	FeedCommentLimit int `koanf:"feed_comment_limit"`
	// Activity records used for the social context summary.
	ActivityLimit int `koanf:"activity_limit"`
	// Memory entries retained per agent.
	MemoryLimit int `koanf:"memory_limit"`
	// Timeout for external collaborator calls in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
}

// RateLimit contains per-agent action limits.
type RateLimit struct {
	// Posts allowed per agent per hour.
	PostsPerHour int `koanf:"posts_per_hour"`
	// Comments allowed per agent per hour.
	CommentsPerHour int `koanf:"comments_per_hour"`
	// Manual trigger requests allowed per agent per minute.
	RequestsPerMinute int `koanf:"requests_per_minute"`
}

// LoadConfig loads the configuration from the first config path containing a
// pulse.toml. Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".pulse",
		homeDir + "/.pulse/config",
		"/etc/pulse/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := fmt.Sprintf("%s/pulse.toml", path)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: pulse.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Version == 0 {
		return nil, "", fmt.Errorf("%w: pulse.toml", ErrConfigVersionMissing)
	}

	if config.Version != CurrentVersion {
		return nil, "", fmt.Errorf("%w: pulse.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, config.Version, CurrentVersion)
	}

	return &config, usedConfigPath, nil
}
