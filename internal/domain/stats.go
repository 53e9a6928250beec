package domain

import (
	"context"
	"slices"
	"strings"
	"time"
)

// UserStats представляет статистику продуктивности пользователя.
type UserStats struct {
	UserID            string    `json:"userId"`
	PRsAuthored       int       `json:"prsAuthored"`
	PRsApproved       int       `json:"prsApproved"`
	PRsMerged         int       `json:"prsMerged"`
	CommentsLeft      int       `json:"commentsLeft"`
	ApprovalTimes     []int     `json:"approvalTimes"`
	PRDurations       []int     `json:"prDurations"`
	FastestApproval   *int      `json:"fastestApproval"`
	LongestPRDuration *int      `json:"longestPRDuration"`
	FirstActivity     time.Time `json:"firstActivity"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// NewUserStats создает пустую статистику пользователя.
func NewUserStats(userID string, now time.Time) UserStats {
	return UserStats{
		UserID:        userID,
		ApprovalTimes: []int{},
		PRDurations:   []int{},
		FirstActivity: now,
		LastUpdated:   now,
	}
}

// Clone возвращает глубокую копию статистики.
func (s UserStats) Clone() UserStats {
	out := s
	out.ApprovalTimes = slices.Clone(s.ApprovalTimes)
	out.PRDurations = slices.Clone(s.PRDurations)
	if s.FastestApproval != nil {
		v := *s.FastestApproval
		out.FastestApproval = &v
	}
	if s.LongestPRDuration != nil {
		v := *s.LongestPRDuration
		out.LongestPRDuration = &v
	}
	return out
}

// AddApprovalTime добавляет замер и обновляет минимум.
func (s *UserStats) AddApprovalTime(minutes int) {
	s.ApprovalTimes = append(s.ApprovalTimes, minutes)
	if s.FastestApproval == nil || minutes < *s.FastestApproval {
		s.FastestApproval = &minutes
	}
}

// AddPRDuration добавляет замер и обновляет максимум.
func (s *UserStats) AddPRDuration(minutes int) {
	s.PRDurations = append(s.PRDurations, minutes)
	if s.LongestPRDuration == nil || minutes > *s.LongestPRDuration {
		s.LongestPRDuration = &minutes
	}
}

// RecomputeExtrema пересчитывает минимум и максимум по замерам.
func (s *UserStats) RecomputeExtrema() {
	s.FastestApproval = nil
	if len(s.ApprovalTimes) > 0 {
		v := slices.Min(s.ApprovalTimes)
		s.FastestApproval = &v
	}
	s.LongestPRDuration = nil
	if len(s.PRDurations) > 0 {
		v := slices.Max(s.PRDurations)
		s.LongestPRDuration = &v
	}
}

// Metric - показатель для таблицы лидеров.
type Metric string

const (
	MetricPRsAuthored       Metric = "prsAuthored"
	MetricPRsApproved       Metric = "prsApproved"
	MetricPRsMerged         Metric = "prsMerged"
	MetricCommentsLeft      Metric = "commentsLeft"
	MetricFastestApproval   Metric = "fastestApproval"
	MetricLongestPRDuration Metric = "longestPRDuration"
)

// Metrics перечисляет все поддерживаемые показатели.
var Metrics = []Metric{
	MetricPRsAuthored,
	MetricPRsApproved,
	MetricPRsMerged,
	MetricCommentsLeft,
	MetricFastestApproval,
	MetricLongestPRDuration,
}

// ParseMetric сопоставляет имя показателя без учета регистра.
func ParseMetric(name string) (Metric, error) {
	for _, m := range Metrics {
		if strings.EqualFold(string(m), name) {
			return m, nil
		}
	}
	return "", ErrUnknownMetric
}

// Ascending сообщает, что меньшее значение лучше.
func (m Metric) Ascending() bool {
	return m == MetricFastestApproval
}

// Value возвращает значение показателя; nil означает отсутствие данных.
func (m Metric) Value(s UserStats) *int {
	var v int
	switch m {
	case MetricPRsAuthored:
		v = s.PRsAuthored
	case MetricPRsApproved:
		v = s.PRsApproved
	case MetricPRsMerged:
		v = s.PRsMerged
	case MetricCommentsLeft:
		v = s.CommentsLeft
	case MetricFastestApproval:
		return s.FastestApproval
	case MetricLongestPRDuration:
		return s.LongestPRDuration
	default:
		return nil
	}
	return &v
}

// LeaderboardEntry - строка таблицы лидеров.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Value  int    `json:"value"`
}

// UserAverages - средние значения по замерам пользователя.
type UserAverages struct {
	ApprovalMinutes   *float64 `json:"avg_approval_minutes"`
	PRDurationMinutes *float64 `json:"avg_pr_duration_minutes"`
}

// StatsRepository определяет контракт хранилища статистики пользователей.
type StatsRepository interface {
	Update(ctx context.Context, userID string, now time.Time, mutate func(*UserStats)) error
	Get(userID string) (UserStats, bool)
	All() []UserStats
}
