package handler

import (
	"net/http"
	"strconv"

	"review-tracker-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const defaultLeaderboardLimit = 5

// StatsHandler обрабатывает HTTP-запросы для получения статистических данных.
type StatsHandler struct {
	*BaseHandler
	statsUseCase domain.StatsUseCase
}

// NewStatsHandler создает новый экземпляр StatsHandler.
func NewStatsHandler(statsUseCase domain.StatsUseCase, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  NewBaseHandler(logger),
		statsUseCase: statsUseCase,
	}
}

// GetLeaderboard обрабатывает GET /stats/leaderboard?metric=&limit=.
func (h *StatsHandler) GetLeaderboard(c echo.Context) error {
	logEntry := h.logRequest(c, "get_leaderboard")

	metric := domain.MetricPRsApproved
	if name := c.QueryParam("metric"); name != "" {
		m, err := domain.ParseMetric(name)
		if err != nil {
			logEntry.WithError(err).Warn("Unknown metric requested")
			return c.JSON(errorJSON(err))
		}
		metric = m
	}

	limit := defaultLeaderboardLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "limit must be a non-negative integer"))
		}
		limit = n
	}

	entries := h.statsUseCase.GetLeaderboard(metric, limit)
	logEntry.WithFields(logrus.Fields{
		"metric":  metric,
		"entries": len(entries),
	}).Info("Leaderboard retrieved")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"metric":      metric,
		"leaderboard": entries,
	})
}

// GetUserStats обрабатывает GET /stats/users/:id.
func (h *StatsHandler) GetUserStats(c echo.Context) error {
	userID := c.Param("id")
	logEntry := h.logRequest(c, "get_user_stats").WithField("user", userID)

	stats := h.statsUseCase.GetUserStats(userID)
	if stats == nil {
		logEntry.Info("No statistics for user")
		return c.JSON(errorJSON(domain.ErrUserStatsNotFound))
	}

	return c.JSON(http.StatusOK, userStatsResponse{
		Stats:    *stats,
		Averages: h.statsUseCase.GetUserAverages(userID),
	})
}
