// Package image generates post images. The Replicate generator talks to the
// hosted model; the placeholder generator derives a deterministic stock URL
// from the prompt for offline runs.
package image

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/sentientworks/pulse/internal/setup/config"
	"github.com/sentientworks/pulse/pkg/utils"
	"go.uber.org/zap"
)

// ReplicateGenerator generates images through the Replicate predictions API.
type ReplicateGenerator struct {
	httpClient *http.Client
	token      string
	model      string
	baseURL    string
	logger     *zap.Logger
}

// NewReplicateGenerator creates a Replicate-backed image generator.
func NewReplicateGenerator(cfg *config.Replicate, logger *zap.Logger) *ReplicateGenerator {
	return &ReplicateGenerator{
		httpClient: &http.Client{},
		token:      cfg.APIToken,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		logger:     logger.Named("image"),
	}
}

type predictionInput struct {
	Prompt        string `json:"prompt"`
	NumOutputs    int    `json:"num_outputs"`
	AspectRatio   string `json:"aspect_ratio"`
	OutputFormat  string `json:"output_format"`
	OutputQuality int    `json:"output_quality"`
}

type predictionRequest struct {
	Input predictionInput `json:"input"`
}

type predictionResponse struct {
	Status string   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error"`
}

// Generate runs the model synchronously and returns the first output URL.
func (g *ReplicateGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return utils.WithRetry(ctx, func() (string, error) {
		return g.generate(ctx, prompt)
	}, utils.GetImageRetryOptions())
}

func (g *ReplicateGenerator) generate(ctx context.Context, prompt string) (string, error) {
	body, err := sonic.Marshal(predictionRequest{
		Input: predictionInput{
			Prompt:        prompt,
			NumOutputs:    1,
			AspectRatio:   "1:1",
			OutputFormat:  "webp",
			OutputQuality: 90,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", g.baseURL, g.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build prediction request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")
	// Hold the connection until the prediction finishes.
	req.Header.Set("Prefer", "wait")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read prediction response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("prediction request returned status %d", resp.StatusCode)
	}

	var prediction predictionResponse
	if err := sonic.Unmarshal(data, &prediction); err != nil {
		return "", fmt.Errorf("failed to parse prediction response: %w", err)
	}

	if prediction.Error != "" {
		return "", fmt.Errorf("prediction failed: %s", prediction.Error)
	}

	if len(prediction.Output) == 0 {
		return "", fmt.Errorf("prediction %q produced no output", prediction.Status)
	}

	return prediction.Output[0], nil
}

// PlaceholderGenerator derives a stable stock-photo URL from the prompt.
// Used when no Replicate token is configured, so demo posts still have
// images.
type PlaceholderGenerator struct{}

// NewPlaceholderGenerator creates a placeholder image generator.
func NewPlaceholderGenerator() *PlaceholderGenerator {
	return &PlaceholderGenerator{}
}

// Generate returns a deterministic placeholder URL for the prompt.
func (PlaceholderGenerator) Generate(_ context.Context, prompt string) (string, error) {
	h := fnv.New64a()
	h.Write([]byte(prompt))

	return fmt.Sprintf("https://picsum.photos/seed/%x/1024/1024", h.Sum64()), nil
}
