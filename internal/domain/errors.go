package domain

import "errors"

// Domain errors (для бизнес-логики)
var (
	// Validation errors
	ErrNoReviewLink         = errors.New("no review link found")
	ErrMalformedReviewLink  = errors.New("malformed review link")
	ErrNoReviewersMentioned = errors.New("no reviewers mentioned")
	ErrUnknownMetric        = errors.New("unknown leaderboard metric")
	ErrInvalidReminderTime  = errors.New("invalid reminder time")
	ErrMissingBotUserID     = errors.New("bot user id is not configured")

	// Tracking errors
	ErrReviewNotFound       = errors.New("tracked review not found")
	ErrReviewAlreadyTracked = errors.New("thread already tracks a review")
	ErrDuplicateReviewURL   = errors.New("review url already tracked")

	// Stats errors
	ErrUserStatsNotFound = errors.New("user has no statistics")

	// External dependency errors
	ErrCodeHostUnavailable = errors.New("code host request failed")
	ErrMergeRejected       = errors.New("code host rejected merge")
)

// HTTPError для ответов read API
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error HTTPError `json:"error"`
}

// Маппинг domain ошибок в HTTP ошибки
var ErrorMapping = map[error]HTTPError{
	ErrUnknownMetric:     {Code: "UNKNOWN_METRIC", Message: "unknown leaderboard metric"},
	ErrUserStatsNotFound: {Code: "NOT_FOUND", Message: "no statistics for user"},
	ErrReviewNotFound:    {Code: "NOT_FOUND", Message: "tracked review not found"},
}

// ToHTTPError преобразует domain ошибку в HTTP ошибку
func ToHTTPError(err error) (HTTPError, bool) {
	for target, httpErr := range ErrorMapping {
		if errors.Is(err, target) {
			return httpErr, true
		}
	}
	return HTTPError{}, false
}

// Маппинг domain ошибок в короткие подсказки для чата
var chatMessages = map[error]string{
	ErrNoReviewLink:         "I couldn't find a merge request link in your message. Post the MR link and mention the reviewers, e.g. `https://gitlab.example.com/team/project/-/merge_requests/42 @alice @bob`.",
	ErrMalformedReviewLink:  "That merge request link doesn't look right. Expected `https://<host>/<workspace>/[group/]<project>/-/merge_requests/<number>`.",
	ErrNoReviewersMentioned: "Please mention at least one reviewer together with the merge request link.",
	ErrDuplicateReviewURL:   "This merge request is already being tracked in another thread.",
	ErrReviewAlreadyTracked: "This thread is already tracking a merge request.",
	ErrReviewNotFound:       "There is no tracked merge request in this thread.",
	ErrUnknownMetric:        "Unknown metric. Available: prsAuthored, prsApproved, prsMerged, commentsLeft, fastestApproval, longestPRDuration.",
	ErrCodeHostUnavailable:  "I couldn't reach the code host right now, please try again later.",
	ErrMergeRejected:        "The code host refused to merge this merge request.",
}

// UserMessage возвращает подсказку для пользователя; внутренние ошибки не раскрываются.
func UserMessage(err error) string {
	for target, msg := range chatMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return "Something went wrong while processing your request."
}
