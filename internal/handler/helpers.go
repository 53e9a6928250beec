package handler

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"review-tracker-bot/internal/domain"
)

// Модели ответов read API

type reviewResponse struct {
	ThreadKey    string     `json:"threadKey"`
	ReviewURL    string     `json:"reviewUrl"`
	RepoPath     string     `json:"repoPath"`
	ReviewNumber int        `json:"reviewNumber"`
	Channel      string     `json:"channel"`
	AuthorID     string     `json:"authorId"`
	Reviewers    []string   `json:"reviewers"`
	Approvals    []string   `json:"approvals"`
	Commenters   []string   `json:"commenters"`
	Approved     bool       `json:"approved"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
}

type userStatsResponse struct {
	Stats    domain.UserStats    `json:"stats"`
	Averages domain.UserAverages `json:"averages"`
}

func toReviewResponse(r domain.TrackedReview) reviewResponse {
	approvals := make([]string, 0, len(r.ApprovalTimes))
	for user := range r.ApprovalTimes {
		approvals = append(approvals, user)
	}
	sort.Strings(approvals)

	return reviewResponse{
		ThreadKey:    r.ThreadKey,
		ReviewURL:    r.ReviewURL,
		RepoPath:     r.RepoPath,
		ReviewNumber: r.ReviewNumber,
		Channel:      r.Channel,
		AuthorID:     r.AuthorID,
		Reviewers:    nonNil(r.Reviewers),
		Approvals:    approvals,
		Commenters:   nonNil(r.Commenters),
		Approved:     r.Approved,
		CreatedAt:    r.CreatedAt,
		LastUpdated:  r.LastUpdated,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func toErrorResponse(code, message string) domain.ErrorResponse {
	return domain.ErrorResponse{
		Error: domain.HTTPError{Code: code, Message: message},
	}
}

func getHTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserStatsNotFound), errors.Is(err, domain.ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownMetric):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(err error) (int, domain.ErrorResponse) {
	if httpErr, ok := domain.ToHTTPError(err); ok {
		return getHTTPStatusCode(err), domain.ErrorResponse{Error: httpErr}
	}
	return http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error())
}
