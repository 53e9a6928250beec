package handler

import (
	"net/http"

	"review-tracker-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ReviewHandler отдает отслеживаемые ревью.
type ReviewHandler struct {
	*BaseHandler
	registry domain.ReviewRegistry
}

// NewReviewHandler создает новый экземпляр ReviewHandler.
func NewReviewHandler(registry domain.ReviewRegistry, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler: NewBaseHandler(logger),
		registry:    registry,
	}
}

// GetReviews обрабатывает GET /reviews.
func (h *ReviewHandler) GetReviews(c echo.Context) error {
	logEntry := h.logRequest(c, "list_reviews")

	snapshot := h.registry.Snapshot()
	reviews := make([]reviewResponse, 0, len(snapshot))
	for _, r := range snapshot {
		reviews = append(reviews, toReviewResponse(r))
	}

	logEntry.WithField("reviews_count", len(reviews)).Info("Tracked reviews listed")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reviews": reviews,
	})
}

// GetReview обрабатывает GET /reviews/:threadKey.
func (h *ReviewHandler) GetReview(c echo.Context) error {
	key := c.Param("threadKey")
	review, ok := h.registry.Get(key)
	if !ok {
		h.logRequest(c, "get_review").WithField("thread_key", key).Info("Review not found")
		return c.JSON(errorJSON(domain.ErrReviewNotFound))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"review": toReviewResponse(review),
	})
}
