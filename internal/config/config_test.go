package config

import (
	"testing"

	"review-tracker-bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReminderTime(t *testing.T) {
	hour, minute, err := ParseReminderTime("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, hour)
	assert.Equal(t, 30, minute)

	hour, minute, err = ParseReminderTime(" 17:05 ")
	require.NoError(t, err)
	assert.Equal(t, 17, hour)
	assert.Equal(t, 5, minute)
}

func TestParseReminderTime_Invalid(t *testing.T) {
	for _, value := range []string{"", "9", "25:00", "09:60", "9am", "09-00"} {
		_, _, err := ParseReminderTime(value)
		assert.ErrorIs(t, err, domain.ErrInvalidReminderTime, value)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BOT_USER_ID", "UBOT")
	t.Setenv("TARGET_CHANNELS", " C1, C2 ,,")
	t.Setenv("DRAFT_ONLY_REPOS", "platform/infra")

	cfg, _ := LoadConfig()

	assert.Equal(t, "09:00", cfg.ReminderTime)
	assert.Equal(t, "gitlab.com", cfg.CodeHost)
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.Equal(t, 5, cfg.StaleBatchSize)
	assert.True(t, cfg.CommentRequiresReviewer)
	assert.Equal(t, []string{"C1", "C2"}, cfg.TargetChannels)
	assert.Equal(t, []string{"platform/infra"}, cfg.DraftOnlyRepos)
}

func TestLoadConfig_MissingBotUserID(t *testing.T) {
	for _, value := range []string{"", "   "} {
		t.Setenv("BOT_USER_ID", value)

		_, err := LoadConfig()

		assert.ErrorIs(t, err, domain.ErrMissingBotUserID, "value %q", value)
	}
}

func TestLoadConfig_InvalidReminderTime(t *testing.T) {
	t.Setenv("BOT_USER_ID", "UBOT")
	t.Setenv("REMINDER_TIME", "half past nine")

	_, err := LoadConfig()

	assert.ErrorIs(t, err, domain.ErrInvalidReminderTime)
}

func TestConfig_MonitorsChannel(t *testing.T) {
	assert.True(t, Config{}.MonitorsChannel("C1"))

	cfg := Config{TargetChannels: []string{"C1"}}
	assert.True(t, cfg.MonitorsChannel("C1"))
	assert.False(t, cfg.MonitorsChannel("C2"))
}

func TestConfig_IsDraftOnly(t *testing.T) {
	cfg := Config{DraftOnlyRepos: []string{"platform/infra", "mobile/"}}

	assert.True(t, cfg.IsDraftOnly("platform/infra"))
	assert.True(t, cfg.IsDraftOnly("platform/infra/terraform"))
	assert.True(t, cfg.IsDraftOnly("mobile/ios"))
	assert.False(t, cfg.IsDraftOnly("platform/infrastructure"))
	assert.False(t, cfg.IsDraftOnly("web/app"))
}
