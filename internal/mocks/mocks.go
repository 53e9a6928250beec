// Package mocks содержит testify-моки внешних зависимостей.
package mocks

import (
	"context"
	"time"

	"review-tracker-bot/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Notifier - мок domain.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) PostMessage(ctx context.Context, channel, threadTS, text string) error {
	args := m.Called(ctx, channel, threadTS, text)
	return args.Error(0)
}

// Texts возвращает тексты всех сообщений, отправленных в channel.
func (m *Notifier) Texts(channel string) []string {
	var out []string
	for _, call := range m.Calls {
		if call.Method == "PostMessage" && call.Arguments.String(1) == channel {
			out = append(out, call.Arguments.String(3))
		}
	}
	return out
}

// UserDirectory - мок domain.UserDirectory.
type UserDirectory struct {
	mock.Mock
}

func (m *UserDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// CodeHost - мок domain.CodeHost.
type CodeHost struct {
	mock.Mock
}

func (m *CodeHost) QueryReview(ctx context.Context, repoPath string, number int) (domain.ReviewStatus, error) {
	args := m.Called(ctx, repoPath, number)
	return args.Get(0).(domain.ReviewStatus), args.Error(1)
}

func (m *CodeHost) MergeReview(ctx context.Context, repoPath string, number int) (bool, error) {
	args := m.Called(ctx, repoPath, number)
	return args.Bool(0), args.Error(1)
}

// TrackingUseCase - мок domain.TrackingUseCase.
type TrackingUseCase struct {
	mock.Mock
}

func (m *TrackingUseCase) HandleMention(ctx context.Context, ev domain.MentionEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *TrackingUseCase) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// StatsRepository - мок domain.StatsRepository.
type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) Update(ctx context.Context, userID string, now time.Time, mutate func(*domain.UserStats)) error {
	args := m.Called(ctx, userID, now, mutate)
	return args.Error(0)
}

func (m *StatsRepository) Get(userID string) (domain.UserStats, bool) {
	args := m.Called(userID)
	return args.Get(0).(domain.UserStats), args.Bool(1)
}

func (m *StatsRepository) All() []domain.UserStats {
	args := m.Called()
	return args.Get(0).([]domain.UserStats)
}
