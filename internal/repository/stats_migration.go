package repository

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Старые имена полей user_stats и их текущие замены.
var legacyStatsFields = map[string]string{
	"reviewsGiven":         "prsApproved",
	"prsCreated":           "prsAuthored",
	"commentsGiven":        "commentsLeft",
	"approvalTimesMinutes": "approvalTimes",
}

var statsCounters = []string{"prsAuthored", "prsApproved", "prsMerged", "commentsLeft"}

// MigrateUserStats приводит записи user_stats к текущему формату:
// переименовывает старые поля и заполняет отсутствующие. Повторный запуск ничего не меняет.
func MigrateUserStats(raw map[string]json.RawMessage, now time.Time) (map[string]json.RawMessage, bool, error) {
	out := make(map[string]json.RawMessage, len(raw))
	changed := false

	for key, data := range raw {
		var record map[string]any
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", key, err)
		}
		if record == nil {
			record = map[string]any{}
		}

		if migrateStatsRecord(key, record, now) {
			encoded, err := json.Marshal(record)
			if err != nil {
				return nil, false, fmt.Errorf("encode %s: %w", key, err)
			}
			out[key] = encoded
			changed = true
			continue
		}
		out[key] = data
	}

	return out, changed, nil
}

func migrateStatsRecord(key string, record map[string]any, now time.Time) bool {
	changed := false

	for legacy, current := range legacyStatsFields {
		value, ok := record[legacy]
		if !ok {
			continue
		}
		if _, exists := record[current]; !exists {
			record[current] = value
		}
		delete(record, legacy)
		changed = true
	}

	if _, ok := record["userId"]; !ok {
		record["userId"] = key
		changed = true
	}

	for _, field := range statsCounters {
		if _, ok := record[field]; !ok {
			record[field] = 0
			changed = true
		}
	}

	approvals, fixed := samples(record, "approvalTimes")
	changed = changed || fixed
	durations, fixed := samples(record, "prDurations")
	changed = changed || fixed

	if v, ok := record["fastestApproval"]; !ok || (v == nil && len(approvals) > 0) {
		record["fastestApproval"] = extremum(approvals, slices.Min[[]float64, float64])
		changed = true
	}
	if v, ok := record["longestPRDuration"]; !ok || (v == nil && len(durations) > 0) {
		record["longestPRDuration"] = extremum(durations, slices.Max[[]float64, float64])
		changed = true
	}

	stamp := now.UTC().Format(time.RFC3339Nano)
	if _, ok := record["firstActivity"]; !ok {
		record["firstActivity"] = stamp
		changed = true
	}
	if _, ok := record["lastUpdated"]; !ok {
		record["lastUpdated"] = stamp
		changed = true
	}

	return changed
}

// samples возвращает числовые замеры поля, заменяя отсутствующее или пустое значение на [].
func samples(record map[string]any, field string) ([]float64, bool) {
	value, ok := record[field]
	if !ok || value == nil {
		record[field] = []any{}
		return nil, true
	}

	list, ok := value.([]any)
	if !ok {
		record[field] = []any{}
		return nil, true
	}

	out := make([]float64, 0, len(list))
	for _, item := range list {
		if f, ok := item.(float64); ok {
			out = append(out, f)
		}
	}
	return out, false
}

func extremum(values []float64, pick func([]float64) float64) any {
	if len(values) == 0 {
		return nil
	}
	return pick(values)
}
