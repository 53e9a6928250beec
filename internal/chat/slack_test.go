package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *SlackClient {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSlackClient("xoxb-test", logger, slack.OptionAPIURL(server.URL+"/"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestPostMessage(t *testing.T) {
	var form map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"channel":   r.FormValue("channel"),
			"text":      r.FormValue("text"),
			"thread_ts": r.FormValue("thread_ts"),
		}
		writeJSON(w, map[string]any{"ok": true, "channel": "C1", "ts": "2.0"})
	})

	client := newTestClient(t, mux)
	err := client.PostMessage(context.Background(), "C1", "1.0", "hello")

	require.NoError(t, err)
	assert.Equal(t, "C1", form["channel"])
	assert.Equal(t, "hello", form["text"])
	assert.Equal(t, "1.0", form["thread_ts"])
}

func TestPostMessageError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": false, "error": "channel_not_found"})
	})

	client := newTestClient(t, mux)
	err := client.PostMessage(context.Background(), "C404", "", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     map[string]any
		expected string
	}{
		{
			name:     "display name",
			user:     map[string]any{"id": "U1", "real_name": "Real", "profile": map[string]any{"display_name": "disp"}},
			expected: "disp",
		},
		{
			name:     "real name fallback",
			user:     map[string]any{"id": "U1", "real_name": "Real", "profile": map[string]any{}},
			expected: "Real",
		},
		{
			name:     "id fallback",
			user:     map[string]any{"id": "U1", "profile": map[string]any{}},
			expected: "U1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/users.info", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]any{"ok": true, "user": tt.user})
			})

			client := newTestClient(t, mux)
			name, err := client.DisplayName(context.Background(), "U1")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestDisplayNameError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users.info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": false, "error": "user_not_found"})
	})

	client := newTestClient(t, mux)
	name, err := client.DisplayName(context.Background(), "U404")

	assert.Error(t, err)
	assert.Equal(t, "U404", name)
}
