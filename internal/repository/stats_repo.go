package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"review-tracker-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// StatsRepository реализует domain.StatsRepository поверх коллекции user_stats.
type StatsRepository struct {
	mu     sync.RWMutex
	stats  map[string]domain.UserStats
	store  domain.CollectionStore
	logger *logrus.Logger
}

// NewStatsRepository создает новый экземпляр StatsRepository.
func NewStatsRepository(store domain.CollectionStore, logger *logrus.Logger) *StatsRepository {
	return &StatsRepository{
		stats:  make(map[string]domain.UserStats),
		store:  store,
		logger: logger,
	}
}

// Load загружает статистику, предварительно прогоняя миграцию старых записей.
// Если миграция что-то изменила, коллекция сразу перезаписывается.
func (r *StatsRepository) Load(ctx context.Context, now time.Time) error {
	raw, err := r.store.LoadCollection(ctx, domain.CollectionUserStats)
	if err != nil {
		return fmt.Errorf("failed to load user stats: %w", err)
	}

	migrated, changed, err := MigrateUserStats(raw, now)
	if err != nil {
		return fmt.Errorf("failed to migrate user stats: %w", err)
	}

	stats := make(map[string]domain.UserStats, len(migrated))
	for key, data := range migrated {
		var s domain.UserStats
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode user stats %s: %w", key, err)
		}
		s.RecomputeExtrema()
		stats[key] = s
	}

	r.mu.Lock()
	r.stats = stats
	r.mu.Unlock()

	if changed {
		if err := r.store.SaveCollection(ctx, domain.CollectionUserStats, migrated); err != nil {
			return fmt.Errorf("failed to save migrated user stats: %w", err)
		}
		r.logger.WithField("count", len(stats)).Info("User stats migrated")
	}

	r.logger.WithField("count", len(stats)).Info("User stats loaded")
	return nil
}

// Update изменяет статистику пользователя, создавая ее при первой активности.
func (r *StatsRepository) Update(ctx context.Context, userID string, now time.Time, mutate func(*domain.UserStats)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.stats[userID]
	if !ok {
		current = domain.NewUserStats(userID, now)
	}

	working := current.Clone()
	mutate(&working)
	working.LastUpdated = now
	r.stats[userID] = working

	records := make(map[string]json.RawMessage, len(r.stats))
	for key, s := range r.stats {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode user stats %s: %w", key, err)
		}
		records[key] = data
	}

	if err := r.store.SaveCollection(ctx, domain.CollectionUserStats, records); err != nil {
		return fmt.Errorf("failed to persist user stats: %w", err)
	}
	return nil
}

// Get возвращает копию статистики пользователя.
func (r *StatsRepository) Get(userID string) (domain.UserStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stats[userID]
	if !ok {
		return domain.UserStats{}, false
	}
	return s.Clone(), true
}

// All возвращает копии статистики всех пользователей, упорядоченные по ID.
func (r *StatsRepository) All() []domain.UserStats {
	r.mu.RLock()
	out := make([]domain.UserStats, 0, len(r.stats))
	for _, s := range r.stats {
		out = append(out, s.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
