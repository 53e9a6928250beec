package usecase

import (
	"context"
	"sort"
	"time"

	"review-tracker-bot/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const staleThreshold = 24 * time.Hour

// ReminderOptions задает пакетную отправку напоминаний о зависших PR.
type ReminderOptions struct {
	Location   *time.Location
	BatchSize  int
	BatchDelay time.Duration
}

// ReminderUseCase формирует и рассылает ежедневные напоминания.
type ReminderUseCase struct {
	registry domain.ReviewRegistry
	notifier domain.Notifier
	codeHost domain.CodeHost
	opts     ReminderOptions
	logger   *logrus.Logger
	now      domain.Clock
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewReminderUseCase создает новый экземпляр ReminderUseCase.
func NewReminderUseCase(
	registry domain.ReviewRegistry,
	notifier domain.Notifier,
	codeHost domain.CodeHost,
	opts ReminderOptions,
	logger *logrus.Logger,
	now domain.Clock,
) *ReminderUseCase {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderUseCase{
		registry: registry,
		notifier: notifier,
		codeHost: codeHost,
		opts:     opts,
		logger:   logger,
		now:      now,
		sleep:    sleepContext,
	}
}

// Sweep выполняет один проход напоминаний. В выходные ничего не отправляется.
// Сбои доставки логируются и не прерывают рассылку.
func (uc *ReminderUseCase) Sweep(ctx context.Context) error {
	now := uc.now()
	entry := uc.logger.WithFields(logrus.Fields{
		"operation": "reminder_sweep",
		"at":        now.In(uc.opts.Location).Format(time.RFC3339),
	})

	if isWeekend(now.In(uc.opts.Location)) {
		entry.Info("Weekend, skipping reminders")
		return nil
	}

	snapshot := uc.registry.Snapshot()
	pending := PendingByReviewer(snapshot)
	stale := uc.staleByAuthor(ctx, snapshot, now, entry)

	entry.WithFields(logrus.Fields{
		"tracked":            len(snapshot),
		"pending_recipients": len(pending),
		"stale_recipients":   len(stale),
	}).Info("Sending reminders")

	for _, reviewer := range sortedKeys(pending) {
		if err := uc.notifier.PostMessage(ctx, reviewer, "", pendingReminderText(pending[reviewer])); err != nil {
			entry.WithError(err).WithField("user", reviewer).Error("Failed to send pending review reminder")
		}
	}

	uc.dispatchStale(ctx, stale, entry)
	return nil
}

// PendingByReviewer группирует неодобренные ревью по ожидающим ревьюерам.
func PendingByReviewer(reviews []domain.TrackedReview) map[string][]domain.ReviewRef {
	out := make(map[string][]domain.ReviewRef)
	for _, r := range reviews {
		if r.Approved || r.Terminal() {
			continue
		}
		for _, reviewer := range r.Reviewers {
			out[reviewer] = append(out[reviewer], r.Ref())
		}
	}
	return out
}

// IsStale сообщает, что с последнего обновления прошло строго больше суток.
func IsStale(lastUpdate, now time.Time) bool {
	return now.Sub(lastUpdate) > staleThreshold
}

func (uc *ReminderUseCase) staleByAuthor(ctx context.Context, reviews []domain.TrackedReview, now time.Time, entry *logrus.Entry) map[string][]domain.ReviewRef {
	out := make(map[string][]domain.ReviewRef)
	for _, r := range reviews {
		if r.Approved || r.Terminal() || r.LastUpdated == nil {
			continue
		}

		status, err := uc.codeHost.QueryReview(ctx, r.RepoPath, r.ReviewNumber)
		if err != nil {
			entry.WithError(err).WithFields(logrus.Fields{
				"repo":   r.RepoPath,
				"number": r.ReviewNumber,
			}).Warn("Failed to query review activity")
			continue
		}

		if IsStale(status.LastUpdateTime, now) {
			out[r.AuthorID] = append(out[r.AuthorID], r.Ref())
		}
	}
	return out
}

// dispatchStale отправляет напоминания пачками фиксированного размера
// с паузой между отправками внутри пачки.
func (uc *ReminderUseCase) dispatchStale(ctx context.Context, stale map[string][]domain.ReviewRef, entry *logrus.Entry) {
	authors := sortedKeys(stale)

	for start := 0; start < len(authors); start += uc.opts.BatchSize {
		end := min(start+uc.opts.BatchSize, len(authors))
		batch := authors[start:end]

		g, gctx := errgroup.WithContext(ctx)
		for i, author := range batch {
			delay := time.Duration(i) * uc.opts.BatchDelay
			g.Go(func() error {
				if err := uc.sleep(gctx, delay); err != nil {
					return err
				}
				if err := uc.notifier.PostMessage(gctx, author, "", staleReminderText(stale[author])); err != nil {
					entry.WithError(err).WithField("user", author).Error("Failed to send stale review reminder")
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			entry.WithError(err).Warn("Stale reminders interrupted")
			return
		}
	}
}

func isWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}

func sortedKeys(m map[string][]domain.ReviewRef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
