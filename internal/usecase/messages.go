package usecase

import (
	"fmt"
	"strings"

	"review-tracker-bot/internal/domain"
)

const helpText = "*Review tracker*\n" +
	"• Post a merge request link and mention the reviewers to start tracking it.\n" +
	"• React on the tracked message: :white_check_mark: approve, :memo: left comments, :wrench: comments fixed (author), :tada: merged, :x: stop tracking.\n" +
	"• In the thread: `add-reviewer @user`, `remove-reviewer @user`, `merge`.\n" +
	"• `stats me`, `stats @user`, `leaderboard [metric]`."

func mention(userID string) string {
	return "<@" + userID + ">"
}

func mentionAll(userIDs []string) string {
	parts := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		parts = append(parts, mention(id))
	}
	return strings.Join(parts, ", ")
}

func trackingStartedText(r domain.TrackedReview) string {
	return fmt.Sprintf("Tracking merge request !%d in `%s`. Reviewers: %s.",
		r.ReviewNumber, r.RepoPath, mentionAll(r.Reviewers))
}

func approvedText(actor string, r domain.TrackedReview) string {
	return fmt.Sprintf("%s approved. Still waiting for: %s.", mention(actor), mentionAll(r.Reviewers))
}

func commentedText(actor string, r domain.TrackedReview) string {
	return fmt.Sprintf("%s left comments on the merge request, %s please take a look.", mention(actor), mention(r.AuthorID))
}

func fixedText(r domain.TrackedReview) string {
	return fmt.Sprintf("%s the comments were addressed by %s, please check again.", mentionAll(r.Commenters), mention(r.AuthorID))
}

func mergedText(r domain.TrackedReview) string {
	return fmt.Sprintf("Merge request !%d is merged and no longer tracked. Thanks everyone!", r.ReviewNumber)
}

func mergeFailedText() string {
	return "I couldn't finish tracking this merge request, please try again."
}

func stoppedText(r domain.TrackedReview) string {
	return fmt.Sprintf("Merge request !%d is no longer tracked.", r.ReviewNumber)
}

func readyToMergeText(r domain.TrackedReview) string {
	return fmt.Sprintf("All reviewers approved! %s the merge request is ready to merge.", mention(r.AuthorID))
}

func draftOnlyBlockedText(r domain.TrackedReview) string {
	return fmt.Sprintf("All reviewers approved! %s `%s` doesn't allow direct merges, so it can't be merged yet: "+
		"finish the draft workflow and hand it over to the maintainers.", mention(r.AuthorID), r.RepoPath)
}

func blockedText(r domain.TrackedReview, status domain.ReviewStatus) string {
	reason := "there are conflicts or the pipeline hasn't passed yet"
	if status.IsDraft {
		reason = "it is still marked as Draft"
	}
	return fmt.Sprintf("All reviewers approved! %s the merge request can't be merged yet: %s.", mention(r.AuthorID), reason)
}

func mergeStatusUnknownText(r domain.TrackedReview) string {
	return fmt.Sprintf("All reviewers approved! %s I couldn't check whether the merge request is mergeable, please check it on the code host.",
		mention(r.AuthorID))
}

func awaitingApprovalsText(r domain.TrackedReview) string {
	return fmt.Sprintf("Not all reviewers approved yet. Still waiting for: %s.", mentionAll(r.Reviewers))
}

func statsText(name string, s domain.UserStats, avg domain.UserAverages) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Statistics for %s*\n", name)
	fmt.Fprintf(&b, "• PRs authored: %d\n", s.PRsAuthored)
	fmt.Fprintf(&b, "• PRs approved: %d\n", s.PRsApproved)
	fmt.Fprintf(&b, "• PRs merged: %d\n", s.PRsMerged)
	fmt.Fprintf(&b, "• Comments left: %d\n", s.CommentsLeft)
	if s.FastestApproval != nil {
		fmt.Fprintf(&b, "• Fastest approval: %s\n", formatMinutes(float64(*s.FastestApproval)))
	}
	if avg.ApprovalMinutes != nil {
		fmt.Fprintf(&b, "• Average approval time: %s\n", formatMinutes(*avg.ApprovalMinutes))
	}
	if s.LongestPRDuration != nil {
		fmt.Fprintf(&b, "• Longest PR: %s\n", formatMinutes(float64(*s.LongestPRDuration)))
	}
	if avg.PRDurationMinutes != nil {
		fmt.Fprintf(&b, "• Average PR lifetime: %s\n", formatMinutes(*avg.PRDurationMinutes))
	}
	return strings.TrimRight(b.String(), "\n")
}

func noStatsText(name string) string {
	return fmt.Sprintf("No statistics yet for %s.", name)
}

func leaderboardText(metric domain.Metric, rows []string) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No data for the `%s` leaderboard yet.", metric)
	}
	return fmt.Sprintf("*Leaderboard: %s*\n%s", metric, strings.Join(rows, "\n"))
}

func pendingReminderText(refs []domain.ReviewRef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d merge request(s) waiting for your review:\n", len(refs))
	for _, ref := range refs {
		fmt.Fprintf(&b, "• %s\n", ref.ReviewURL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func staleReminderText(refs []domain.ReviewRef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "These merge requests of yours had no activity for more than a day:\n")
	for _, ref := range refs {
		fmt.Fprintf(&b, "• %s\n", ref.ReviewURL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMinutes(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%.0f min", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%.1f h", hours)
	}
	return fmt.Sprintf("%.1f d", hours/24)
}
