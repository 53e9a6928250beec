package codehost

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"review-tracker-bot/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mrPath = "/api/v4/projects/workspace%2Fgroup%2Fproject/merge_requests/42"

func newTestClient(t *testing.T, handler http.HandlerFunc) *GitLabClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := NewGitLabClient("token", "", server.URL, logger)
	require.NoError(t, err)
	return client
}

func TestQueryReview(t *testing.T) {
	updated := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, mrPath, r.URL.EscapedPath())
		assert.Equal(t, "token", r.Header.Get("PRIVATE-TOKEN"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"iid":                   42,
			"updated_at":            updated.Format(time.RFC3339),
			"detailed_merge_status": "mergeable",
			"draft":                 false,
		})
	})

	status, err := client.QueryReview(context.Background(), "workspace/group/project", 42)

	require.NoError(t, err)
	assert.True(t, status.Mergeable)
	assert.False(t, status.IsDraft)
	assert.True(t, updated.Equal(status.LastUpdateTime))
}

func TestQueryReviewDraft(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"iid":                   42,
			"detailed_merge_status": "draft_status",
			"draft":                 true,
		})
	})

	status, err := client.QueryReview(context.Background(), "workspace/group/project", 42)

	require.NoError(t, err)
	assert.False(t, status.Mergeable)
	assert.True(t, status.IsDraft)
	assert.True(t, status.LastUpdateTime.IsZero())
}

func TestQueryReviewUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"404 Not found"}`))
	})

	_, err := client.QueryReview(context.Background(), "workspace/group/project", 42)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCodeHostUnavailable)
}

func TestMergeReview(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected bool
		wantErr  bool
	}{
		{name: "merged", status: http.StatusOK, body: `{"iid":42,"state":"merged"}`, expected: true},
		{name: "still opened", status: http.StatusOK, body: `{"iid":42,"state":"opened"}`, expected: false},
		{name: "conflict", status: http.StatusMethodNotAllowed, body: `{"message":"405 Method Not Allowed"}`, expected: false},
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"boom"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, mrPath+"/merge", r.URL.EscapedPath())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			merged, err := client.MergeReview(context.Background(), "workspace/group/project", 42)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrCodeHostUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, merged)
		})
	}
}
