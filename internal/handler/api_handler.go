package handler

import (
	"net/http"

	"review-tracker-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type APIHandler struct {
	*EventsHandler
	*ReviewHandler
	*StatsHandler
}

func NewAPIHandler(
	tracking domain.TrackingUseCase,
	registry domain.ReviewRegistry,
	statsUseCase domain.StatsUseCase,
	signingSecret string,
	logger *logrus.Logger,
) *APIHandler {

	return &APIHandler{
		EventsHandler: NewEventsHandler(tracking, signingSecret, logger),
		ReviewHandler: NewReviewHandler(registry, logger),
		StatsHandler:  NewStatsHandler(statsUseCase, logger),
	}
}

// RegisterHandlers регистрирует маршруты бота.
func RegisterHandlers(e *echo.Echo, h *APIHandler) {
	e.POST("/slack/events", h.PostSlackEvents)
	e.GET("/reviews", h.GetReviews)
	e.GET("/reviews/:threadKey", h.GetReview)
	e.GET("/stats/leaderboard", h.GetLeaderboard)
	e.GET("/stats/users/:id", h.GetUserStats)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
