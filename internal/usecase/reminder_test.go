package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"review-tracker-bot/internal/database"
	"review-tracker-bot/internal/domain"
	"review-tracker-bot/internal/mocks"
	"review-tracker-bot/internal/repository"
	"review-tracker-bot/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Понедельник.
var sweepTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type reminderEnv struct {
	uc       *usecase.ReminderUseCase
	registry *repository.ReviewRepository
	notifier *mocks.Notifier
	codeHost *mocks.CodeHost
}

func newReminderEnv(t *testing.T, now time.Time, batchSize int) *reminderEnv {
	t.Helper()
	logger := quietLogger()
	env := &reminderEnv{
		registry: repository.NewReviewRepository(database.NewMemoryStore(), logger),
		notifier: &mocks.Notifier{},
		codeHost: &mocks.CodeHost{},
	}
	env.notifier.On("PostMessage", mock.Anything, mock.Anything, "", mock.Anything).Return(nil)
	env.uc = usecase.NewReminderUseCase(env.registry, env.notifier, env.codeHost, usecase.ReminderOptions{
		Location:   time.UTC,
		BatchSize:  batchSize,
		BatchDelay: time.Millisecond,
	}, logger, func() time.Time { return now })
	return env
}

func (env *reminderEnv) add(t *testing.T, key, author string, number int, reviewers []string, touched bool) {
	t.Helper()
	link := domain.ReviewLink{
		URL:       fmt.Sprintf("https://gitlab.com/ws/proj/-/merge_requests/%d", number),
		Workspace: "ws",
		Project:   "proj",
		Number:    number,
	}
	review := domain.NewTrackedReview(key, "C1", author, link, reviewers, sweepTime.Add(-72*time.Hour))
	review.LastUpdated = nil
	if touched {
		at := sweepTime.Add(-48 * time.Hour)
		review.LastUpdated = &at
	}
	require.NoError(t, env.registry.Create(context.Background(), review))
}

func (env *reminderEnv) approve(t *testing.T, key string, reviewers ...string) {
	t.Helper()
	for _, r := range reviewers {
		_, res := env.registry.Apply(context.Background(), key, func(tr *domain.TrackedReview) bool {
			return tr.Approve(r, sweepTime)
		})
		require.Equal(t, domain.ApplyUpdated, res)
	}
}

func TestIsStale(t *testing.T) {
	assert.True(t, usecase.IsStale(sweepTime.Add(-24*time.Hour-time.Minute), sweepTime))
	assert.False(t, usecase.IsStale(sweepTime.Add(-24*time.Hour), sweepTime))
	assert.False(t, usecase.IsStale(sweepTime.Add(-time.Hour), sweepTime))
}

func TestPendingByReviewer(t *testing.T) {
	env := newReminderEnv(t, sweepTime, 5)
	env.add(t, "1.1", "author", 1, []string{"ua", "ub"}, false)
	env.add(t, "2.1", "author", 2, []string{"ub"}, false)
	env.add(t, "3.1", "author", 3, []string{"uc"}, false)
	env.approve(t, "3.1", "uc")

	pending := usecase.PendingByReviewer(env.registry.Snapshot())

	require.Len(t, pending, 2)
	assert.Len(t, pending["ua"], 1)
	require.Len(t, pending["ub"], 2)
	assert.Equal(t, "1.1", pending["ub"][0].ThreadKey)
	assert.Equal(t, "2.1", pending["ub"][1].ThreadKey)
	assert.Equal(t, "C1", pending["ub"][0].Channel)
}

func TestSweep_PendingAndStale(t *testing.T) {
	env := newReminderEnv(t, sweepTime, 5)
	env.add(t, "1.1", "alice", 1, []string{"ua", "ub"}, true)
	env.add(t, "2.1", "bob", 2, []string{"ub"}, true)
	env.add(t, "3.1", "carol", 3, []string{"uc"}, false)

	env.codeHost.On("QueryReview", mock.Anything, "ws/proj", 1).
		Return(domain.ReviewStatus{LastUpdateTime: sweepTime.Add(-24*time.Hour - time.Minute)}, nil)
	env.codeHost.On("QueryReview", mock.Anything, "ws/proj", 2).
		Return(domain.ReviewStatus{LastUpdateTime: sweepTime.Add(-24 * time.Hour)}, nil)

	require.NoError(t, env.uc.Sweep(context.Background()))

	ub := env.notifier.Texts("ub")
	require.Len(t, ub, 1)
	assert.Contains(t, ub[0], "2 merge request(s)")
	assert.Contains(t, ub[0], "merge_requests/1")
	assert.Contains(t, ub[0], "merge_requests/2")
	assert.Len(t, env.notifier.Texts("ua"), 1)
	assert.Len(t, env.notifier.Texts("uc"), 1)

	alice := env.notifier.Texts("alice")
	require.Len(t, alice, 1)
	assert.Contains(t, alice[0], "merge_requests/1")
	assert.Empty(t, env.notifier.Texts("bob"), "exactly 24h is not stale")
	assert.Empty(t, env.notifier.Texts("carol"), "never touched reviews are not checked")

	env.codeHost.AssertNumberOfCalls(t, "QueryReview", 2)
}

func TestSweep_ApprovedReviewsSkippedAndKept(t *testing.T) {
	env := newReminderEnv(t, sweepTime, 5)
	env.add(t, "1.1", "alice", 1, []string{"ua"}, true)
	env.approve(t, "1.1", "ua")

	require.NoError(t, env.uc.Sweep(context.Background()))

	env.notifier.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	env.codeHost.AssertNotCalled(t, "QueryReview", mock.Anything, mock.Anything, mock.Anything)
	_, ok := env.registry.Get("1.1")
	assert.True(t, ok)
}

func TestSweep_SkipsWeekend(t *testing.T) {
	saturday := time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)
	env := newReminderEnv(t, saturday, 5)
	env.add(t, "1.1", "alice", 1, []string{"ua"}, true)

	require.NoError(t, env.uc.Sweep(context.Background()))

	env.notifier.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweep_WeekendUsesLocation(t *testing.T) {
	// Понедельник 01:00 в UTC+3 - это воскресенье в UTC.
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC)

	logger := quietLogger()
	registry := repository.NewReviewRepository(database.NewMemoryStore(), logger)
	notifier := &mocks.Notifier{}
	notifier.On("PostMessage", mock.Anything, mock.Anything, "", mock.Anything).Return(nil)
	uc := usecase.NewReminderUseCase(registry, notifier, &mocks.CodeHost{}, usecase.ReminderOptions{Location: loc}, logger,
		func() time.Time { return now })

	review := domain.NewTrackedReview("1.1", "C1", "alice", domain.ReviewLink{URL: "u", Workspace: "ws", Project: "p", Number: 1},
		[]string{"ua"}, now)
	review.LastUpdated = nil
	require.NoError(t, registry.Create(context.Background(), review))

	require.NoError(t, uc.Sweep(context.Background()))

	assert.Len(t, notifier.Texts("ua"), 1)
}

func TestSweep_StaleBatchesAreBestEffort(t *testing.T) {
	env := newReminderEnv(t, sweepTime, 2)
	env.notifier.ExpectedCalls = nil
	env.notifier.On("PostMessage", mock.Anything, "author-1", "", mock.Anything).Return(errors.New("user_not_found"))
	env.notifier.On("PostMessage", mock.Anything, mock.Anything, "", mock.Anything).Return(nil)

	for i := 0; i < 5; i++ {
		env.add(t, fmt.Sprintf("%d.1", i), fmt.Sprintf("author-%d", i), i+1, []string{"ua"}, true)
		env.codeHost.On("QueryReview", mock.Anything, "ws/proj", i+1).
			Return(domain.ReviewStatus{LastUpdateTime: sweepTime.Add(-30 * time.Hour)}, nil)
	}

	require.NoError(t, env.uc.Sweep(context.Background()))

	authors := 0
	for _, call := range env.notifier.Calls {
		if strings.HasPrefix(call.Arguments.String(1), "author-") {
			authors++
		}
	}
	assert.Equal(t, 5, authors)
}

func TestSweep_CodeHostErrorSkipsReview(t *testing.T) {
	env := newReminderEnv(t, sweepTime, 5)
	env.add(t, "1.1", "alice", 1, []string{"ua"}, true)
	env.add(t, "2.1", "bob", 2, []string{"ub"}, true)
	env.codeHost.On("QueryReview", mock.Anything, "ws/proj", 1).Return(domain.ReviewStatus{}, errors.New("502"))
	env.codeHost.On("QueryReview", mock.Anything, "ws/proj", 2).
		Return(domain.ReviewStatus{LastUpdateTime: sweepTime.Add(-25 * time.Hour)}, nil)

	require.NoError(t, env.uc.Sweep(context.Background()))

	assert.Empty(t, env.notifier.Texts("alice"))
	assert.Len(t, env.notifier.Texts("bob"), 1)
}
