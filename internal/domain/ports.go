package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Имена персистентных коллекций.
const (
	CollectionTrackedReviews = "tracked_reviews"
	CollectionUserStats      = "user_stats"
)

// CollectionStore сохраняет и загружает коллекции целиком.
type CollectionStore interface {
	LoadCollection(ctx context.Context, name string) (map[string]json.RawMessage, error)
	SaveCollection(ctx context.Context, name string, records map[string]json.RawMessage) error
}

// Notifier отправляет сообщения в чат.
type Notifier interface {
	PostMessage(ctx context.Context, channel, threadTS, text string) error
}

// UserDirectory ищет отображаемые имена пользователей чата.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// ReviewStatus - состояние merge request на код-хостинге.
type ReviewStatus struct {
	LastUpdateTime time.Time
	Mergeable      bool
	IsDraft        bool
}

// CodeHost определяет контракт внешнего код-хостинга.
type CodeHost interface {
	QueryReview(ctx context.Context, repoPath string, number int) (ReviewStatus, error)
	MergeReview(ctx context.Context, repoPath string, number int) (bool, error)
}

// Clock возвращает текущее время.
type Clock func() time.Time
