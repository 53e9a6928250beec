package codehost

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"review-tracker-bot/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/xanzy/go-gitlab"
)

const mergeableStatus = "mergeable"

// GitLabClient реализует domain.CodeHost поверх GitLab REST API.
type GitLabClient struct {
	client *gitlab.Client
	logger *logrus.Logger
}

// NewGitLabClient создает клиента для хоста host (например, gitlab.com) или явного baseURL.
func NewGitLabClient(token, host, baseURL string, logger *logrus.Logger) (*GitLabClient, error) {
	if baseURL == "" {
		baseURL = "https://" + strings.TrimSuffix(host, "/")
	}

	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}

	return &GitLabClient{client: client, logger: logger}, nil
}

// QueryReview возвращает время последнего обновления и возможность слияния merge request.
func (c *GitLabClient) QueryReview(ctx context.Context, repoPath string, number int) (domain.ReviewStatus, error) {
	mr, _, err := c.client.MergeRequests.GetMergeRequest(repoPath, number, nil, gitlab.WithContext(ctx))
	if err != nil {
		return domain.ReviewStatus{}, fmt.Errorf("%w: get %s!%d: %v", domain.ErrCodeHostUnavailable, repoPath, number, err)
	}

	status := domain.ReviewStatus{
		Mergeable: mr.DetailedMergeStatus == mergeableStatus,
		IsDraft:   mr.Draft,
	}
	if mr.UpdatedAt != nil {
		status.LastUpdateTime = *mr.UpdatedAt
	}

	c.logger.WithFields(logrus.Fields{
		"repo":         repoPath,
		"number":       number,
		"merge_status": mr.DetailedMergeStatus,
		"draft":        mr.Draft,
	}).Debug("Merge request queried")

	return status, nil
}

// MergeReview сливает merge request. Отказ GitLab (конфликты, черновик, нет прав) - false без ошибки.
func (c *GitLabClient) MergeReview(ctx context.Context, repoPath string, number int) (bool, error) {
	mr, resp, err := c.client.MergeRequests.AcceptMergeRequest(repoPath, number, &gitlab.AcceptMergeRequestOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && isRejection(resp.StatusCode) {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"repo":   repoPath,
				"number": number,
				"status": resp.StatusCode,
			}).Warn("Merge rejected by GitLab")
			return false, nil
		}
		return false, fmt.Errorf("%w: merge %s!%d: %v", domain.ErrCodeHostUnavailable, repoPath, number, err)
	}

	return mr.State == "merged", nil
}

func isRejection(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed,
		http.StatusNotAcceptable, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
