package image

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sentientworks/pulse/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPlaceholderGeneratorDeterministic(t *testing.T) {
	t.Parallel()

	generator := NewPlaceholderGenerator()

	first, err := generator.Generate(t.Context(), "cosmic nebula")
	require.NoError(t, err)

	second, err := generator.Generate(t.Context(), "cosmic nebula")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "https://picsum.photos/seed/")

	other, err := generator.Generate(t.Context(), "glitch art")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func newTestGenerator(baseURL string) *ReplicateGenerator {
	return NewReplicateGenerator(&config.Replicate{
		APIToken: "test-token",
		Model:    "test/model",
		BaseURL:  baseURL,
	}, zap.NewNop())
}

func TestReplicateGenerate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/test/model/predictions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "wait", r.Header.Get("Prefer"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"prompt":"cosmic nebula"`)
		assert.Contains(t, string(body), `"aspect_ratio":"1:1"`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"succeeded","output":["https://img.test/out.webp"]}`))
	}))
	defer server.Close()

	url, err := newTestGenerator(server.URL).Generate(t.Context(), "cosmic nebula")
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/out.webp", url)
}

func TestReplicateGeneratePredictionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"failed","error":"NSFW content detected"}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).generate(t.Context(), "something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestReplicateGenerateEmptyOutput(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"processing","output":[]}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).generate(t.Context(), "something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no output")
}

func TestReplicateGenerateHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).generate(t.Context(), "something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
