// Package client wraps the Gemini API behind a circuit breaker and a
// concurrency limit. Policies above it only ever see prompt in, JSON out.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sentientworks/pulse/internal/setup/config"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"google.golang.org/api/option"
)

var ErrEmptyResponse = errors.New("model returned no candidates")

// Client is a Gemini API client. All requests share one circuit breaker and
// one concurrency semaphore, so a failing upstream trips quickly and
// heartbeat bursts cannot pile requests onto it.
type Client struct {
	genai     *genai.Client
	breaker   *gobreaker.CircuitBreaker
	semaphore *semaphore.Weighted
	logger    *zap.Logger
}

// New creates a Gemini client.
func New(ctx context.Context, cfg *config.Gemini, logger *zap.Logger) (*Client, error) {
	g, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Create circuit breaker settings
	settings := gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(_ string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Client{
		genai:     g,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		semaphore: semaphore.NewWeighted(maxConcurrent),
		logger:    logger.Named("ai_client"),
	}, nil
}

// Generate sends a prompt to the given model and returns the raw response
// text. The model is configured to answer with JSON.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	if err := c.semaphore.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer c.semaphore.Release(1)

	result, err := c.breaker.Execute(func() (any, error) {
		m := c.genai.GenerativeModel(model)
		m.GenerationConfig.ResponseMIMEType = "application/json"

		resp, err := m.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}

		if len(resp.Candidates) == 0 ||
			resp.Candidates[0].Content == nil ||
			len(resp.Candidates[0].Content.Parts) == 0 {
			return nil, ErrEmptyResponse
		}

		text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected part type", ErrEmptyResponse)
		}

		return string(text), nil
	})
	if err != nil {
		c.logger.Warn("Generation request failed",
			zap.String("model", model),
			zap.Error(err))

		return "", err
	}

	return result.(string), nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.genai.Close()
}
