package domain

import (
	"context"
	"slices"
	"time"
)

// TrackedReview представляет ветку чата, в которой отслеживается одно ревью.
type TrackedReview struct {
	ThreadKey       string               `json:"threadKey"`
	ReviewURL       string               `json:"reviewUrl"`
	RepoPath        string               `json:"repoPath"`
	ReviewNumber    int                  `json:"reviewNumber"`
	Channel         string               `json:"channel"`
	AuthorID        string               `json:"authorId"`
	Reviewers       []string             `json:"reviewers"`
	Approved        bool                 `json:"approved"`
	Merged          bool                 `json:"merged"`
	Commenters      []string             `json:"commenters"`
	ApprovalTimes   map[string]time.Time `json:"approvalTimes"`
	FirstApprovalAt *time.Time           `json:"firstApprovalAt"`
	CreatedAt       time.Time            `json:"createdAt"`
	LastUpdated     *time.Time           `json:"lastUpdated"`
}

// NewTrackedReview создает запись для только что найденной ссылки на ревью.
func NewTrackedReview(threadKey, channel, authorID string, link ReviewLink, reviewers []string, now time.Time) TrackedReview {
	return TrackedReview{
		ThreadKey:     threadKey,
		ReviewURL:     link.URL,
		RepoPath:      link.ProjectPath(),
		ReviewNumber:  link.Number,
		Channel:       channel,
		AuthorID:      authorID,
		Reviewers:     slices.Clone(reviewers),
		Commenters:    []string{},
		ApprovalTimes: map[string]time.Time{},
		CreatedAt:     now,
		LastUpdated:   &now,
	}
}

// Clone возвращает глубокую копию записи.
func (r TrackedReview) Clone() TrackedReview {
	out := r
	out.Reviewers = slices.Clone(r.Reviewers)
	out.Commenters = slices.Clone(r.Commenters)
	if r.ApprovalTimes != nil {
		out.ApprovalTimes = make(map[string]time.Time, len(r.ApprovalTimes))
		for k, v := range r.ApprovalTimes {
			out.ApprovalTimes[k] = v
		}
	}
	if r.FirstApprovalAt != nil {
		t := *r.FirstApprovalAt
		out.FirstApprovalAt = &t
	}
	if r.LastUpdated != nil {
		t := *r.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

// IsReviewer проверяет, ожидается ли еще одобрение от пользователя.
func (r TrackedReview) IsReviewer(userID string) bool {
	return slices.Contains(r.Reviewers, userID)
}

// Terminal сообщает, что переходы к записи больше не применяются.
func (r TrackedReview) Terminal() bool {
	return r.Merged
}

// Approve убирает ревьювера из списка ожидающих.
// Approved выставляется только здесь, а не по пустому списку ревьюверов.
func (r *TrackedReview) Approve(userID string, at time.Time) bool {
	idx := slices.Index(r.Reviewers, userID)
	if idx < 0 {
		return false
	}
	r.Reviewers = slices.Delete(r.Reviewers, idx, idx+1)
	if r.ApprovalTimes == nil {
		r.ApprovalTimes = map[string]time.Time{}
	}
	r.ApprovalTimes[userID] = at
	if r.FirstApprovalAt == nil {
		r.FirstApprovalAt = &at
	}
	r.LastUpdated = &at
	if len(r.Reviewers) == 0 {
		r.Approved = true
	}
	return true
}

// AddCommenter запоминает автора комментариев, возвращает true для нового.
func (r *TrackedReview) AddCommenter(userID string, at time.Time) bool {
	r.LastUpdated = &at
	if slices.Contains(r.Commenters, userID) {
		return false
	}
	r.Commenters = append(r.Commenters, userID)
	return true
}

// AddReviewer добавляет ревьювера, если его еще нет в списке.
func (r *TrackedReview) AddReviewer(userID string, at time.Time) bool {
	if slices.Contains(r.Reviewers, userID) {
		return false
	}
	r.Reviewers = append(r.Reviewers, userID)
	r.Approved = false
	r.LastUpdated = &at
	return true
}

// RemoveReviewer убирает ревьювера; опустевший список считается одобрением.
func (r *TrackedReview) RemoveReviewer(userID string, at time.Time) bool {
	idx := slices.Index(r.Reviewers, userID)
	if idx < 0 {
		return false
	}
	r.Reviewers = slices.Delete(r.Reviewers, idx, idx+1)
	r.LastUpdated = &at
	if len(r.Reviewers) == 0 {
		r.Approved = true
	}
	return true
}

// Ref возвращает краткую ссылку на запись для напоминаний.
func (r TrackedReview) Ref() ReviewRef {
	return ReviewRef{
		ReviewURL: r.ReviewURL,
		ThreadKey: r.ThreadKey,
		Channel:   r.Channel,
	}
}

// ReviewRef - элемент списка напоминаний.
type ReviewRef struct {
	ReviewURL string
	ThreadKey string
	Channel   string
}

// ReviewRegistry определяет контракт реестра отслеживаемых ревью.
type ReviewRegistry interface {
	Create(ctx context.Context, review TrackedReview) error
	Get(threadKey string) (TrackedReview, bool)
	Apply(ctx context.Context, threadKey string, mutate func(*TrackedReview) bool) (TrackedReview, ApplyResult)
	Remove(ctx context.Context, threadKey string) (TrackedReview, bool)
	Find(match func(TrackedReview) bool) (TrackedReview, bool)
	Snapshot() []TrackedReview
}

// ApplyResult - результат атомарного изменения записи реестра.
type ApplyResult int

const (
	ApplyNotFound ApplyResult = iota
	ApplyUnchanged
	ApplyUpdated
)
