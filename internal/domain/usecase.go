package domain

import (
	"context"
	"time"
)

// TrackingUseCase определяет переходы состояний отслеживаемых ревью.
type TrackingUseCase interface {
	HandleMention(ctx context.Context, ev MentionEvent) error
	HandleReaction(ctx context.Context, ev ReactionEvent) error
}

// StatsUseCase определяет журнал статистики пользователей.
type StatsUseCase interface {
	RecordCreation(ctx context.Context, userID string, at time.Time)
	RecordApproval(ctx context.Context, reviewerID, authorID string, createdAt, approvedAt time.Time)
	RecordComment(ctx context.Context, userID string)
	RecordMerge(ctx context.Context, authorID string, createdAt, mergedAt time.Time)
	GetUserStats(userID string) *UserStats
	GetLeaderboard(metric Metric, limit int) []LeaderboardEntry
	GetUserAverages(userID string) UserAverages
}

// ReminderUseCase определяет ежедневную рассылку напоминаний.
type ReminderUseCase interface {
	Sweep(ctx context.Context) error
}
