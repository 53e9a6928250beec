package chat

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// SlackClient отправляет сообщения и ищет пользователей через Slack Web API.
type SlackClient struct {
	api    *slack.Client
	logger *logrus.Logger
}

// NewSlackClient создает новый экземпляр SlackClient.
// Дополнительные опции позволяют, например, подменить адрес API в тестах.
func NewSlackClient(token string, logger *logrus.Logger, options ...slack.Option) *SlackClient {
	return &SlackClient{
		api:    slack.New(token, options...),
		logger: logger,
	}
}

// PostMessage отправляет текст в канал или личные сообщения. Пустой threadTS - сообщение верхнего уровня.
func (c *SlackClient) PostMessage(ctx context.Context, channel, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	if _, _, err := c.api.PostMessageContext(ctx, channel, opts...); err != nil {
		return fmt.Errorf("post message to %s: %w", channel, err)
	}

	c.logger.WithFields(logrus.Fields{
		"channel":   channel,
		"thread_ts": threadTS,
	}).Debug("Message posted")
	return nil
}

// DisplayName возвращает отображаемое имя, затем реальное имя, затем ID пользователя.
func (c *SlackClient) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return userID, fmt.Errorf("get user info %s: %w", userID, err)
	}

	switch {
	case user.Profile.DisplayName != "":
		return user.Profile.DisplayName, nil
	case user.RealName != "":
		return user.RealName, nil
	default:
		return userID, nil
	}
}
