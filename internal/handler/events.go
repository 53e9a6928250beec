package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"review-tracker-bot/internal/domain"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const retryHeader = "X-Slack-Retry-Num"

// EventsHandler принимает события Slack Events API.
// Подтверждение отправляется сразу, обработка идет в фоне.
type EventsHandler struct {
	*BaseHandler
	tracking      domain.TrackingUseCase
	signingSecret string
	inflight      sync.WaitGroup
}

// NewEventsHandler создает новый экземпляр EventsHandler.
func NewEventsHandler(tracking domain.TrackingUseCase, signingSecret string, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{
		BaseHandler:   NewBaseHandler(logger),
		tracking:      tracking,
		signingSecret: signingSecret,
	}
}

// PostSlackEvents обрабатывает POST /slack/events.
func (h *EventsHandler) PostSlackEvents(c echo.Context) error {
	logEntry := h.logRequest(c, "slack_event")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		logEntry.WithError(err).Warn("Failed to read event body")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "cannot read body"))
	}

	if h.signingSecret != "" {
		if err := h.verify(c.Request().Header, body); err != nil {
			logEntry.WithError(err).Warn("Rejected unsigned event")
			return c.JSON(http.StatusUnauthorized, toErrorResponse("INVALID_SIGNATURE", "request signature mismatch"))
		}
	}

	if retry := c.Request().Header.Get(retryHeader); retry != "" {
		logEntry.WithField("retry_num", retry).Info("Dropping retried event")
		return c.NoContent(http.StatusOK)
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		logEntry.WithError(err).Warn("Failed to parse event")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
		}
		return c.String(http.StatusOK, challenge.Challenge)
	case slackevents.CallbackEvent:
		h.dispatch(context.WithoutCancel(c.Request().Context()), event.InnerEvent, logEntry)
	}

	return c.NoContent(http.StatusOK)
}

// Wait ждет завершения обработки принятых событий или отмены ctx.
func (h *EventsHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *EventsHandler) verify(header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

func (h *EventsHandler) dispatch(ctx context.Context, inner slackevents.EventsAPIInnerEvent, logEntry *logrus.Entry) {
	var handle func(context.Context) error

	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		if ev.BotID != "" {
			return
		}
		mention := domain.MentionEvent{
			Text:     ev.Text,
			User:     ev.User,
			Channel:  ev.Channel,
			TS:       ev.TimeStamp,
			ThreadTS: ev.ThreadTimeStamp,
		}
		handle = func(ctx context.Context) error { return h.tracking.HandleMention(ctx, mention) }
	case *slackevents.ReactionAddedEvent:
		reaction := domain.ReactionEvent{
			Reaction: ev.Reaction,
			User:     ev.User,
			TargetTS: ev.Item.Timestamp,
			Channel:  ev.Item.Channel,
		}
		handle = func(ctx context.Context) error { return h.tracking.HandleReaction(ctx, reaction) }
	default:
		logEntry.WithField("event_type", inner.Type).Debug("Ignoring event")
		return
	}

	entry := logEntry.WithFields(logrus.Fields{
		"event_id":   uuid.NewString(),
		"event_type": inner.Type,
	})

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				entry.WithError(fmt.Errorf("panic: %v", r)).Error("Event handler panicked")
			}
		}()

		if err := handle(ctx); err != nil {
			entry.WithError(err).Error("Failed to handle event")
			return
		}
		entry.Debug("Event handled")
	}()
}
