package config

import (
	"fmt"
	"strings"
	"time"

	"review-tracker-bot/internal/domain"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Чат
	SlackBotToken      string   `env:"SLACK_BOT_TOKEN"`
	SlackSigningSecret string   `env:"SLACK_SIGNING_SECRET"`
	BotUserID          string   `env:"BOT_USER_ID"`
	TargetChannels     []string `env:"TARGET_CHANNELS" env-separator:","`

	// Код-хостинг
	CodeHost                string   `env:"CODE_HOST" env-default:"gitlab.com"`
	CodeHostURL             string   `env:"CODE_HOST_URL"`
	CodeHostToken           string   `env:"CODE_HOST_TOKEN"`
	DraftOnlyRepos          []string `env:"DRAFT_ONLY_REPOS" env-separator:","`
	CommentRequiresReviewer bool     `env:"COMMENT_REQUIRES_REVIEWER" env-default:"true"`

	// Напоминания
	ReminderTime     string        `env:"REMINDER_TIME" env-default:"09:00"`
	ReminderTimezone string        `env:"REMINDER_TZ" env-default:"Local"`
	StaleBatchSize   int           `env:"STALE_BATCH_SIZE" env-default:"5"`
	StaleBatchDelay  time.Duration `env:"STALE_BATCH_DELAY" env-default:"1s"`

	// Хранилище
	StorageDriver string `env:"STORAGE_DRIVER" env-default:"file"`
	DataDir       string `env:"DATA_DIR" env-default:"./data"`
	DBHost        string `env:"DB_HOST" env-default:"localhost"`
	DBPort        string `env:"DB_PORT" env-default:"5432"`
	DBUser        string `env:"DB_USER" env-default:"postgres"`
	DBPassword    string `env:"DB_PASSWORD" env-default:"password"`
	DBName        string `env:"DB_NAME" env-default:"review_bot"`

	ServerPort string `env:"SERVER_PORT" env-default:"8080"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
}

// LoadConfig читает .env (если есть) и переменные окружения.
// Ошибка отсутствия .env возвращается вместе с валидной конфигурацией.
func LoadConfig() (Config, error) {
	envErr := godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.TargetChannels = trimList(cfg.TargetChannels)
	cfg.DraftOnlyRepos = trimList(cfg.DraftOnlyRepos)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, envErr
}

// Validate проверяет значения, без которых бот не может стартовать.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BotUserID) == "" {
		return fmt.Errorf("%w: set BOT_USER_ID", domain.ErrMissingBotUserID)
	}
	if _, _, err := ParseReminderTime(c.ReminderTime); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid REMINDER_TZ %q: %w", c.ReminderTimezone, err)
	}
	switch c.StorageDriver {
	case "file", "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StaleBatchSize <= 0 {
		return fmt.Errorf("STALE_BATCH_SIZE must be positive, got %d", c.StaleBatchSize)
	}
	return nil
}

// Location возвращает часовой пояс напоминаний.
func (c Config) Location() (*time.Location, error) {
	if c.ReminderTimezone == "" || c.ReminderTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.ReminderTimezone)
}

// ParseReminderTime разбирает время в формате HH:MM (24 часа).
func ParseReminderTime(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q, expected HH:MM", domain.ErrInvalidReminderTime, value)
	}
	return t.Hour(), t.Minute(), nil
}

// MonitorsChannel сообщает, отслеживается ли канал. Пустой список - все каналы.
func (c Config) MonitorsChannel(channel string) bool {
	if len(c.TargetChannels) == 0 {
		return true
	}
	for _, ch := range c.TargetChannels {
		if ch == channel {
			return true
		}
	}
	return false
}

// IsDraftOnly сообщает, запрещено ли прямое слияние в репозитории.
func (c Config) IsDraftOnly(repoPath string) bool {
	for _, prefix := range c.DraftOnlyRepos {
		if repoPath == prefix || strings.HasPrefix(repoPath, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
