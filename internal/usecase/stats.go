package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"review-tracker-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// StatsUseCase реализует журнал статистики пользователей.
// Ошибки и паники внутри журнала логируются и не выходят наружу.
type StatsUseCase struct {
	statsRepo domain.StatsRepository
	logger    *logrus.Logger
	now       domain.Clock
}

// NewStatsUseCase создает новый экземпляр StatsUseCase.
func NewStatsUseCase(statsRepo domain.StatsRepository, logger *logrus.Logger, now domain.Clock) *StatsUseCase {
	if now == nil {
		now = time.Now
	}
	return &StatsUseCase{
		statsRepo: statsRepo,
		logger:    logger,
		now:       now,
	}
}

// RecordCreation учитывает новый PR автора.
func (uc *StatsUseCase) RecordCreation(ctx context.Context, userID string, at time.Time) {
	uc.safely("record_creation", userID, func() error {
		return uc.statsRepo.Update(ctx, userID, at, func(s *domain.UserStats) {
			s.PRsAuthored++
		})
	})
}

// RecordApproval учитывает одобрение и время от создания PR до одобрения.
func (uc *StatsUseCase) RecordApproval(ctx context.Context, reviewerID, authorID string, createdAt, approvedAt time.Time) {
	uc.safely("record_approval", reviewerID, func() error {
		minutes := DurationMinutes(createdAt, approvedAt)
		uc.logger.WithFields(logrus.Fields{
			"reviewer": reviewerID,
			"author":   authorID,
			"minutes":  minutes,
		}).Debug("Recording approval")

		return uc.statsRepo.Update(ctx, reviewerID, approvedAt, func(s *domain.UserStats) {
			s.PRsApproved++
			s.AddApprovalTime(minutes)
		})
	})
}

// RecordComment учитывает оставленные комментарии.
func (uc *StatsUseCase) RecordComment(ctx context.Context, userID string) {
	uc.safely("record_comment", userID, func() error {
		return uc.statsRepo.Update(ctx, userID, uc.now(), func(s *domain.UserStats) {
			s.CommentsLeft++
		})
	})
}

// RecordMerge учитывает слияние PR и его длительность для автора.
func (uc *StatsUseCase) RecordMerge(ctx context.Context, authorID string, createdAt, mergedAt time.Time) {
	uc.safely("record_merge", authorID, func() error {
		minutes := DurationMinutes(createdAt, mergedAt)
		return uc.statsRepo.Update(ctx, authorID, mergedAt, func(s *domain.UserStats) {
			s.PRsMerged++
			s.AddPRDuration(minutes)
		})
	})
}

// GetUserStats возвращает статистику пользователя или nil, если ее нет.
func (uc *StatsUseCase) GetUserStats(userID string) *domain.UserStats {
	s, ok := uc.statsRepo.Get(userID)
	if !ok {
		return nil
	}
	return &s
}

// GetLeaderboard возвращает лучших пользователей по показателю.
// Пользователи без значения или с неположительным значением не попадают в таблицу.
func (uc *StatsUseCase) GetLeaderboard(metric domain.Metric, limit int) []domain.LeaderboardEntry {
	if limit <= 0 {
		return []domain.LeaderboardEntry{}
	}

	entries := make([]domain.LeaderboardEntry, 0)
	for _, s := range uc.statsRepo.All() {
		v := metric.Value(s)
		if v == nil || *v <= 0 {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{UserID: s.UserID, Value: *v})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value == entries[j].Value {
			return entries[i].UserID < entries[j].UserID
		}
		if metric.Ascending() {
			return entries[i].Value < entries[j].Value
		}
		return entries[i].Value > entries[j].Value
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// GetUserAverages возвращает средние значения замеров пользователя.
func (uc *StatsUseCase) GetUserAverages(userID string) domain.UserAverages {
	s, ok := uc.statsRepo.Get(userID)
	if !ok {
		return domain.UserAverages{}
	}
	return domain.UserAverages{
		ApprovalMinutes:   mean(s.ApprovalTimes),
		PRDurationMinutes: mean(s.PRDurations),
	}
}

// safely изолирует сбои статистики от основного сценария.
func (uc *StatsUseCase) safely(operation, userID string, fn func() error) {
	entry := uc.logger.WithFields(logrus.Fields{
		"operation": operation,
		"user":      userID,
	})

	defer func() {
		if r := recover(); r != nil {
			entry.WithError(fmt.Errorf("panic: %v", r)).Error("Statistics update panicked")
		}
	}()

	if err := fn(); err != nil {
		entry.WithError(err).Error("Statistics update failed")
	}
}

// DurationMinutes возвращает длительность интервала в минутах с округлением.
// Перевернутый интервал дает отрицательное значение.
func DurationMinutes(start, end time.Time) int {
	ms := float64(end.Sub(start).Milliseconds())
	return int(math.Floor(ms/60000 + 0.5))
}

func mean(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	avg := float64(sum) / float64(len(values))
	return &avg
}
