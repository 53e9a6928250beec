package domain

// MentionEvent - упоминание бота в сообщении.
type MentionEvent struct {
	Text     string
	User     string
	Channel  string
	TS       string
	ThreadTS string
}

// InThread сообщает, что сообщение является ответом в ветке.
func (e MentionEvent) InThread() bool {
	return e.ThreadTS != "" && e.ThreadTS != e.TS
}

// ReactionEvent - реакция, поставленная на сообщение.
type ReactionEvent struct {
	Reaction string
	User     string
	TargetTS string
	Channel  string
	ThreadTS string
}

// OnReply сообщает, что реакция стоит на ответе в ветке, а не на корневом сообщении.
func (e ReactionEvent) OnReply() bool {
	return e.ThreadTS != "" && e.ThreadTS != e.TargetTS
}
