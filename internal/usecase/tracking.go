package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"review-tracker-bot/internal/domain"
	"review-tracker-bot/internal/reaction"
	"review-tracker-bot/internal/reviewlink"

	"github.com/sirupsen/logrus"
)

const defaultLeaderboardLimit = 5

// LinkFinder ищет ссылку на merge request в тексте сообщения.
type LinkFinder interface {
	Find(text string) (domain.ReviewLink, error)
}

// TrackingOptions - политика развертывания для переходов.
type TrackingOptions struct {
	BotUserID               string
	CommentRequiresReviewer bool
	MonitorsChannel         func(channel string) bool
	IsDraftOnly             func(repoPath string) bool
}

// TrackingUseCase реализует переходы состояний отслеживаемых ревью.
type TrackingUseCase struct {
	registry domain.ReviewRegistry
	stats    domain.StatsUseCase
	notifier domain.Notifier
	users    domain.UserDirectory
	codeHost domain.CodeHost
	links    LinkFinder
	opts     TrackingOptions
	logger   *logrus.Logger
	now      domain.Clock
}

// NewTrackingUseCase создает новый экземпляр TrackingUseCase.
func NewTrackingUseCase(
	registry domain.ReviewRegistry,
	stats domain.StatsUseCase,
	notifier domain.Notifier,
	users domain.UserDirectory,
	codeHost domain.CodeHost,
	links LinkFinder,
	opts TrackingOptions,
	logger *logrus.Logger,
	now domain.Clock,
) *TrackingUseCase {
	if opts.MonitorsChannel == nil {
		opts.MonitorsChannel = func(string) bool { return true }
	}
	if opts.IsDraftOnly == nil {
		opts.IsDraftOnly = func(string) bool { return false }
	}
	if now == nil {
		now = time.Now
	}
	return &TrackingUseCase{
		registry: registry,
		stats:    stats,
		notifier: notifier,
		users:    users,
		codeHost: codeHost,
		links:    links,
		opts:     opts,
		logger:   logger,
		now:      now,
	}
}

// HandleMention разбирает упоминание бота: справка, статистика, команды ветки
// или постановка ссылки на отслеживание.
func (uc *TrackingUseCase) HandleMention(ctx context.Context, ev domain.MentionEvent) error {
	lower := strings.ToLower(ev.Text)
	command := commandWords(lower)
	entry := uc.logger.WithFields(logrus.Fields{
		"operation": "mention",
		"user":      ev.User,
		"channel":   ev.Channel,
		"ts":        ev.TS,
	})

	if ev.InThread() {
		review, tracked := uc.registry.Get(ev.ThreadTS)
		switch {
		case tracked && strings.Contains(lower, "add-reviewer"):
			uc.addReviewers(ctx, review, ev)
			return nil
		case tracked && strings.Contains(lower, "remove-reviewer"):
			uc.removeReviewers(ctx, review, ev)
			return nil
		case tracked && firstWord(command) == "merge":
			uc.mergeCommand(ctx, review, ev)
			return nil
		case !tracked && (strings.Contains(lower, "add-reviewer") || strings.Contains(lower, "remove-reviewer")):
			uc.reply(ctx, ev.Channel, replyTS(ev), domain.UserMessage(domain.ErrReviewNotFound))
			return nil
		}
	}

	switch firstWord(command) {
	case "help":
		uc.reply(ctx, ev.Channel, replyTS(ev), helpText)
		return nil
	case "stats":
		uc.statsCommand(ctx, ev)
		return nil
	case "leaderboard":
		uc.leaderboardCommand(ctx, ev, command)
		return nil
	}

	if !uc.opts.MonitorsChannel(ev.Channel) {
		entry.Debug("Channel is not monitored, ignoring mention")
		return nil
	}

	return uc.track(ctx, ev, entry)
}

func (uc *TrackingUseCase) track(ctx context.Context, ev domain.MentionEvent, entry *logrus.Entry) error {
	link, err := uc.links.Find(ev.Text)
	if err != nil {
		entry.WithError(err).Info("No trackable review link in mention")
		uc.reply(ctx, ev.Channel, replyTS(ev), domain.UserMessage(err))
		return nil
	}

	reviewers := reviewlink.Mentions(ev.Text, uc.opts.BotUserID)
	if len(reviewers) == 0 {
		uc.reply(ctx, ev.Channel, replyTS(ev), domain.UserMessage(domain.ErrNoReviewersMentioned))
		return nil
	}

	if _, dup := uc.registry.Find(func(r domain.TrackedReview) bool { return r.ReviewURL == link.URL }); dup {
		uc.reply(ctx, ev.Channel, replyTS(ev), domain.UserMessage(domain.ErrDuplicateReviewURL))
		return nil
	}

	now := uc.now()
	review := domain.NewTrackedReview(ev.TS, ev.Channel, ev.User, link, reviewers, now)
	if err := uc.registry.Create(ctx, review); err != nil {
		if errors.Is(err, domain.ErrDuplicateReviewURL) || errors.Is(err, domain.ErrReviewAlreadyTracked) {
			uc.reply(ctx, ev.Channel, replyTS(ev), domain.UserMessage(err))
			return nil
		}
		entry.WithError(err).Error("Failed to start tracking review")
		uc.reply(ctx, ev.Channel, replyTS(ev), domain.UserMessage(err))
		return err
	}

	uc.stats.RecordCreation(ctx, ev.User, now)
	entry.WithFields(logrus.Fields{
		"thread_key": review.ThreadKey,
		"repo":       review.RepoPath,
		"number":     review.ReviewNumber,
	}).Info("Review tracked")

	uc.reply(ctx, ev.Channel, review.ThreadKey, trackingStartedText(review))
	return nil
}

// HandleReaction применяет переход, соответствующий реакции на корневом сообщении.
func (uc *TrackingUseCase) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	if ev.OnReply() {
		return nil
	}

	kind := reaction.Classify(ev.Reaction)
	if kind == reaction.Unknown {
		return nil
	}

	review, ok := uc.registry.Get(ev.TargetTS)
	if !ok || review.Terminal() {
		return nil
	}

	entry := uc.logger.WithFields(logrus.Fields{
		"operation":  "reaction",
		"kind":       kind.String(),
		"user":       ev.User,
		"thread_key": review.ThreadKey,
	})

	switch kind {
	case reaction.Approve:
		uc.approve(ctx, review, ev.User, entry)
	case reaction.Comment:
		uc.comment(ctx, review, ev.User, entry)
	case reaction.Fixed:
		uc.fixed(ctx, review, ev.User, entry)
	case reaction.Merge:
		uc.completeMerge(ctx, review, entry)
	case reaction.Stop:
		uc.stop(ctx, review, entry)
	}
	return nil
}

func (uc *TrackingUseCase) approve(ctx context.Context, review domain.TrackedReview, actor string, entry *logrus.Entry) {
	now := uc.now()
	updated, res := uc.registry.Apply(ctx, review.ThreadKey, func(r *domain.TrackedReview) bool {
		if r.Terminal() {
			return false
		}
		return r.Approve(actor, now)
	})
	if res != domain.ApplyUpdated {
		entry.Debug("Approval ignored: actor is not a pending reviewer")
		return
	}

	uc.stats.RecordApproval(ctx, actor, updated.AuthorID, updated.CreatedAt, now)
	entry.WithField("remaining", len(updated.Reviewers)).Info("Review approved")

	if updated.Approved {
		uc.announceMergeReadiness(ctx, updated, entry)
		return
	}
	uc.reply(ctx, updated.Channel, updated.ThreadKey, approvedText(actor, updated))
}

func (uc *TrackingUseCase) comment(ctx context.Context, review domain.TrackedReview, actor string, entry *logrus.Entry) {
	if uc.opts.CommentRequiresReviewer && !review.IsReviewer(actor) {
		entry.Debug("Comment ignored: actor is not a reviewer")
		return
	}

	now := uc.now()
	first := false
	updated, res := uc.registry.Apply(ctx, review.ThreadKey, func(r *domain.TrackedReview) bool {
		if r.Terminal() {
			return false
		}
		first = r.AddCommenter(actor, now)
		return true
	})
	if res != domain.ApplyUpdated {
		return
	}

	if first {
		uc.stats.RecordComment(ctx, actor)
	}
	entry.Info("Comments left")
	uc.reply(ctx, updated.Channel, updated.ThreadKey, commentedText(actor, updated))
}

func (uc *TrackingUseCase) fixed(ctx context.Context, review domain.TrackedReview, actor string, entry *logrus.Entry) {
	if actor != review.AuthorID || len(review.Commenters) == 0 {
		entry.Debug("Fixed signal ignored")
		return
	}
	entry.Info("Comments marked as fixed")
	uc.reply(ctx, review.Channel, review.ThreadKey, fixedText(review))
}

// completeMerge удаляет запись слитого ревью и учитывает слияние в статистике.
func (uc *TrackingUseCase) completeMerge(ctx context.Context, review domain.TrackedReview, entry *logrus.Entry) {
	removed, ok := uc.registry.Remove(ctx, review.ThreadKey)
	if !ok {
		entry.Error("Failed to remove merged review")
		uc.reply(ctx, review.Channel, review.ThreadKey, mergeFailedText())
		return
	}
	removed.Merged = true

	uc.stats.RecordMerge(ctx, removed.AuthorID, removed.CreatedAt, uc.now())
	entry.Info("Review merged")
	uc.reply(ctx, removed.Channel, removed.ThreadKey, mergedText(removed))
}

func (uc *TrackingUseCase) stop(ctx context.Context, review domain.TrackedReview, entry *logrus.Entry) {
	removed, ok := uc.registry.Remove(ctx, review.ThreadKey)
	if !ok {
		return
	}
	entry.Info("Review no longer tracked")
	uc.reply(ctx, removed.Channel, removed.ThreadKey, stoppedText(removed))
}

// announceMergeReadiness сообщает автору, можно ли сливать полностью одобренное ревью.
func (uc *TrackingUseCase) announceMergeReadiness(ctx context.Context, review domain.TrackedReview, entry *logrus.Entry) {
	status, err := uc.codeHost.QueryReview(ctx, review.RepoPath, review.ReviewNumber)
	if err != nil {
		entry.WithError(err).Warn("Failed to query merge status")
		uc.reply(ctx, review.Channel, review.ThreadKey, mergeStatusUnknownText(review))
		return
	}

	var text string
	switch {
	case status.Mergeable:
		text = readyToMergeText(review)
	case uc.opts.IsDraftOnly(review.RepoPath):
		text = draftOnlyBlockedText(review)
	default:
		text = blockedText(review, status)
	}
	uc.reply(ctx, review.Channel, review.ThreadKey, text)
}

func (uc *TrackingUseCase) addReviewers(ctx context.Context, review domain.TrackedReview, ev domain.MentionEvent) {
	users := reviewlink.Mentions(ev.Text, uc.opts.BotUserID)
	if len(users) == 0 {
		uc.reply(ctx, ev.Channel, review.ThreadKey, domain.UserMessage(domain.ErrNoReviewersMentioned))
		return
	}

	lines := make([]string, 0, len(users))
	for _, user := range users {
		now := uc.now()
		_, res := uc.registry.Apply(ctx, review.ThreadKey, func(r *domain.TrackedReview) bool {
			return !r.Terminal() && r.AddReviewer(user, now)
		})
		switch res {
		case domain.ApplyUpdated:
			lines = append(lines, fmt.Sprintf("%s added as a reviewer.", mention(user)))
		case domain.ApplyUnchanged:
			lines = append(lines, fmt.Sprintf("%s is already a reviewer.", mention(user)))
		default:
			uc.reply(ctx, ev.Channel, review.ThreadKey, domain.UserMessage(domain.ErrReviewNotFound))
			return
		}
	}
	uc.reply(ctx, ev.Channel, review.ThreadKey, strings.Join(lines, "\n"))
}

func (uc *TrackingUseCase) removeReviewers(ctx context.Context, review domain.TrackedReview, ev domain.MentionEvent) {
	users := reviewlink.Mentions(ev.Text, uc.opts.BotUserID)
	if len(users) == 0 {
		uc.reply(ctx, ev.Channel, review.ThreadKey, domain.UserMessage(domain.ErrNoReviewersMentioned))
		return
	}

	wasApproved := review.Approved
	var latest domain.TrackedReview
	lines := make([]string, 0, len(users))
	for _, user := range users {
		now := uc.now()
		updated, res := uc.registry.Apply(ctx, review.ThreadKey, func(r *domain.TrackedReview) bool {
			return !r.Terminal() && r.RemoveReviewer(user, now)
		})
		switch res {
		case domain.ApplyUpdated:
			lines = append(lines, fmt.Sprintf("%s removed from reviewers.", mention(user)))
		case domain.ApplyUnchanged:
			lines = append(lines, fmt.Sprintf("%s is not a reviewer.", mention(user)))
		default:
			uc.reply(ctx, ev.Channel, review.ThreadKey, domain.UserMessage(domain.ErrReviewNotFound))
			return
		}
		latest = updated
	}
	uc.reply(ctx, ev.Channel, review.ThreadKey, strings.Join(lines, "\n"))

	if !wasApproved && latest.Approved {
		uc.announceMergeReadiness(ctx, latest, uc.logger.WithField("thread_key", review.ThreadKey))
	}
}

// mergeCommand сливает одобренное ревью через код-хостинг.
func (uc *TrackingUseCase) mergeCommand(ctx context.Context, review domain.TrackedReview, ev domain.MentionEvent) {
	entry := uc.logger.WithFields(logrus.Fields{
		"operation":  "merge_command",
		"user":       ev.User,
		"thread_key": review.ThreadKey,
	})

	if !review.Approved {
		uc.reply(ctx, ev.Channel, review.ThreadKey, awaitingApprovalsText(review))
		return
	}

	merged, err := uc.codeHost.MergeReview(ctx, review.RepoPath, review.ReviewNumber)
	if err != nil {
		entry.WithError(err).Error("Merge request failed")
		uc.reply(ctx, ev.Channel, review.ThreadKey, domain.UserMessage(domain.ErrCodeHostUnavailable))
		return
	}
	if !merged {
		entry.Warn("Code host rejected merge")
		uc.reply(ctx, ev.Channel, review.ThreadKey, domain.UserMessage(domain.ErrMergeRejected))
		return
	}

	uc.completeMerge(ctx, review, entry)
}

func (uc *TrackingUseCase) statsCommand(ctx context.Context, ev domain.MentionEvent) {
	target := ev.User
	if users := reviewlink.Mentions(ev.Text, uc.opts.BotUserID); len(users) > 0 {
		target = users[0]
	}

	name := uc.displayName(ctx, target)
	s := uc.stats.GetUserStats(target)
	if s == nil {
		uc.reply(ctx, ev.Channel, replyTS(ev), noStatsText(name))
		return
	}
	uc.reply(ctx, ev.Channel, replyTS(ev), statsText(name, *s, uc.stats.GetUserAverages(target)))
}

func (uc *TrackingUseCase) leaderboardCommand(ctx context.Context, ev domain.MentionEvent, command []string) {
	metric := domain.MetricPRsApproved
	if len(command) > 1 {
		m, err := domain.ParseMetric(command[1])
		if err != nil {
			uc.reply(ctx, ev.Channel, replyTS(ev), domain.UserMessage(err))
			return
		}
		metric = m
	}

	entries := uc.stats.GetLeaderboard(metric, defaultLeaderboardLimit)
	rows := make([]string, 0, len(entries))
	for i, e := range entries {
		value := fmt.Sprintf("%d", e.Value)
		if metric == domain.MetricFastestApproval || metric == domain.MetricLongestPRDuration {
			value = formatMinutes(float64(e.Value))
		}
		rows = append(rows, fmt.Sprintf("%d. %s: %s", i+1, uc.displayName(ctx, e.UserID), value))
	}
	uc.reply(ctx, ev.Channel, replyTS(ev), leaderboardText(metric, rows))
}

// displayName возвращает имя пользователя, при сбое - сырой ID.
func (uc *TrackingUseCase) displayName(ctx context.Context, userID string) string {
	name, err := uc.users.DisplayName(ctx, userID)
	if err != nil || name == "" {
		if err != nil {
			uc.logger.WithError(err).WithField("user", userID).Warn("Failed to look up user name")
		}
		return userID
	}
	return name
}

// reply отправляет сообщение в ветку; ошибка отправки только логируется.
func (uc *TrackingUseCase) reply(ctx context.Context, channel, threadTS, text string) {
	if err := uc.notifier.PostMessage(ctx, channel, threadTS, text); err != nil {
		uc.logger.WithError(err).WithFields(logrus.Fields{
			"channel":   channel,
			"thread_ts": threadTS,
		}).Error("Failed to post message")
	}
}

func replyTS(ev domain.MentionEvent) string {
	if ev.ThreadTS != "" {
		return ev.ThreadTS
	}
	return ev.TS
}

// commandWords возвращает слова команды без упоминаний и ссылок.
func commandWords(lower string) []string {
	words := strings.Fields(lower)
	out := words[:0]
	for _, w := range words {
		if strings.HasPrefix(w, "<@") || strings.HasPrefix(w, "<http") || strings.HasPrefix(w, "http") {
			continue
		}
		out = append(out, w)
	}
	return out
}

func firstWord(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[0]
}
