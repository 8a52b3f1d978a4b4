package notify_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sentientworks/pulse/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookNotify(t *testing.T) {
	t.Parallel()

	var received string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = string(body)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := notify.NewWebhookNotifier(server.URL, zap.NewNop())

	err := notifier.Notify(t.Context(), "creator-1", "🎨 Luna just created something new!", "moonlight")
	require.NoError(t, err)

	assert.Contains(t, received, `"creatorId":"creator-1"`)
	assert.Contains(t, received, "Luna just created something new!")
	assert.Contains(t, received, `"body":"moonlight"`)
}

func TestWebhookNotifyRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := notify.NewWebhookNotifier(server.URL, zap.NewNop())

	err := notifier.Notify(t.Context(), "creator-1", "title", "body")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestNopNotifier(t *testing.T) {
	t.Parallel()

	notifier := notify.NewNopNotifier()
	require.NoError(t, notifier.Notify(t.Context(), "creator-1", "title", "body"))
}
