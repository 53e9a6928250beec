package scheduler

import (
	"context"
	"fmt"
	"time"

	"review-tracker-bot/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler запускает ежедневную рассылку напоминаний.
type Scheduler struct {
	cron     *cron.Cron
	reminder domain.ReminderUseCase
	logger   *logrus.Logger
	timeout  time.Duration
}

// NewScheduler создает планировщик, который срабатывает каждый день в hour:minute в часовом поясе loc.
func NewScheduler(reminder domain.ReminderUseCase, hour, minute int, loc *time.Location, logger *logrus.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		reminder: reminder,
		logger:   logger,
		timeout:  time.Hour,
	}

	if _, err := s.cron.AddFunc(DailySpec(hour, minute), s.run); err != nil {
		return nil, fmt.Errorf("failed to schedule reminders: %w", err)
	}

	return s, nil
}

// DailySpec возвращает cron-выражение для ежедневного запуска.
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// Start запускает планировщик в фоне.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("next_run", s.Next().Format(time.RFC3339)).Info("Reminder scheduler started")
}

// Stop останавливает планировщик и ждет завершения текущего прохода.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Reminder scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Reminder sweep still running at shutdown")
	}
}

// Next возвращает время следующего запуска.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.reminder.Sweep(ctx); err != nil {
		s.logger.WithError(err).Error("Reminder sweep failed")
		return
	}
	s.logger.WithField("duration", time.Since(start).String()).Info("Reminder sweep finished")
}
