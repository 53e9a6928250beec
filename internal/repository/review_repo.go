package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"review-tracker-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// ReviewRepository - реестр отслеживаемых ревью в памяти.
// Каждое успешное изменение синхронно сохраняет коллекцию целиком.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]domain.TrackedReview
	store   domain.CollectionStore
	logger  *logrus.Logger
}

// NewReviewRepository создает новый экземпляр ReviewRepository.
func NewReviewRepository(store domain.CollectionStore, logger *logrus.Logger) *ReviewRepository {
	return &ReviewRepository{
		reviews: make(map[string]domain.TrackedReview),
		store:   store,
		logger:  logger,
	}
}

// Load загружает коллекцию из хранилища, заменяя состояние в памяти.
func (r *ReviewRepository) Load(ctx context.Context) error {
	raw, err := r.store.LoadCollection(ctx, domain.CollectionTrackedReviews)
	if err != nil {
		return fmt.Errorf("failed to load tracked reviews: %w", err)
	}

	reviews := make(map[string]domain.TrackedReview, len(raw))
	for key, data := range raw {
		var review domain.TrackedReview
		if err := json.Unmarshal(data, &review); err != nil {
			return fmt.Errorf("failed to decode tracked review %s: %w", key, err)
		}
		if review.ThreadKey == "" {
			review.ThreadKey = key
		}
		reviews[key] = review
	}

	r.mu.Lock()
	r.reviews = reviews
	r.mu.Unlock()

	r.logger.WithField("count", len(reviews)).Info("Tracked reviews loaded")
	return nil
}

// Create добавляет запись; ключ ветки и URL ревью должны быть уникальны.
func (r *ReviewRepository) Create(ctx context.Context, review domain.TrackedReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reviews[review.ThreadKey]; exists {
		return domain.ErrReviewAlreadyTracked
	}
	for _, existing := range r.reviews {
		if existing.ReviewURL == review.ReviewURL {
			return domain.ErrDuplicateReviewURL
		}
	}

	r.reviews[review.ThreadKey] = review.Clone()
	r.persistLocked(ctx, "create", review.ThreadKey)
	return nil
}

// Get возвращает копию записи по ключу ветки.
func (r *ReviewRepository) Get(threadKey string) (domain.TrackedReview, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[threadKey]
	if !ok {
		return domain.TrackedReview{}, false
	}
	return review.Clone(), true
}

// Apply атомарно изменяет запись. Мутатор возвращает false, если изменений нет,
// и тогда запись в хранилище не выполняется.
func (r *ReviewRepository) Apply(ctx context.Context, threadKey string, mutate func(*domain.TrackedReview) bool) (domain.TrackedReview, domain.ApplyResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.reviews[threadKey]
	if !ok {
		return domain.TrackedReview{}, domain.ApplyNotFound
	}

	working := current.Clone()
	if !mutate(&working) {
		return current.Clone(), domain.ApplyUnchanged
	}

	r.reviews[threadKey] = working
	r.persistLocked(ctx, "apply", threadKey)
	return working.Clone(), domain.ApplyUpdated
}

// Remove удаляет запись и возвращает ее последнее состояние.
func (r *ReviewRepository) Remove(ctx context.Context, threadKey string) (domain.TrackedReview, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	review, ok := r.reviews[threadKey]
	if !ok {
		return domain.TrackedReview{}, false
	}

	delete(r.reviews, threadKey)
	r.persistLocked(ctx, "remove", threadKey)
	return review, true
}

// Find возвращает первую запись, удовлетворяющую условию.
func (r *ReviewRepository) Find(match func(domain.TrackedReview) bool) (domain.TrackedReview, bool) {
	for _, review := range r.Snapshot() {
		if match(review) {
			return review, true
		}
	}
	return domain.TrackedReview{}, false
}

// Snapshot возвращает копии всех записей, упорядоченные по времени создания.
func (r *ReviewRepository) Snapshot() []domain.TrackedReview {
	r.mu.RLock()
	out := make([]domain.TrackedReview, 0, len(r.reviews))
	for _, review := range r.reviews {
		out = append(out, review.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ThreadKey < out[j].ThreadKey
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// persistLocked сохраняет коллекцию; ошибка только логируется,
// состояние в памяти остается основным до перезапуска.
func (r *ReviewRepository) persistLocked(ctx context.Context, operation, threadKey string) {
	entry := r.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"thread_key": threadKey,
		"collection": domain.CollectionTrackedReviews,
	})

	records := make(map[string]json.RawMessage, len(r.reviews))
	for key, review := range r.reviews {
		data, err := json.Marshal(review)
		if err != nil {
			entry.WithError(err).Error("Failed to encode tracked review")
			return
		}
		records[key] = data
	}

	if err := r.store.SaveCollection(ctx, domain.CollectionTrackedReviews, records); err != nil {
		entry.WithError(err).Error("Failed to persist tracked reviews")
	}
}
