// Package reaction классифицирует эмодзи-реакции чата.
package reaction

import "strings"

// Kind - тип сигнала, который несет реакция.
type Kind int

const (
	Unknown Kind = iota
	Approve
	Comment
	Merge
	Stop
	Fixed
)

func (k Kind) String() string {
	switch k {
	case Approve:
		return "approve"
	case Comment:
		return "comment"
	case Merge:
		return "merge"
	case Stop:
		return "stop"
	case Fixed:
		return "fixed"
	default:
		return "unknown"
	}
}

type rule struct {
	kind     Kind
	exact    []string
	contains []string
}

// Порядок правил задает приоритет при неоднозначности.
// Подстроки в contains составные: одиночное слово ищется только в exact.
var rules = []rule{
	{
		kind:     Approve,
		exact:    []string{"+1", "thumbsup", "ok_hand", "approve", "approved", "lgtm"},
		contains: []string{"check_mark", "+1::skin-tone", "thumbsup::skin-tone", "ok_hand::skin-tone", "approve_", "_approve"},
	},
	{
		kind:     Comment,
		exact:    []string{"memo", "pencil", "pencil2", "speech_balloon", "left_speech_bubble", "writing_hand", "comment", "comments"},
		contains: []string{"comment_", "_comment", "writing_hand::skin-tone"},
	},
	{
		kind:     Merge,
		exact:    []string{"tada", "twisted_rightwards_arrows", "merge", "merged"},
		contains: []string{"merge_", "_merge"},
	},
	{
		kind:     Stop,
		exact:    []string{"x", "stop", "stop_sign", "no_entry", "no_entry_sign", "octagonal_sign", "negative_squared_cross_mark"},
		contains: []string{"stop_track", "stop-track"},
	},
	{
		kind:     Fixed,
		exact:    []string{"wrench", "hammer", "hammer_and_wrench", "hammer_and_pick", "fix", "fixed"},
		contains: []string{"fixed_", "_fixed"},
	},
}

// Classify сопоставляет имя реакции с типом сигнала.
func Classify(name string) Kind {
	name = strings.ToLower(strings.Trim(strings.TrimSpace(name), ":"))
	if name == "" {
		return Unknown
	}
	for _, r := range rules {
		if r.matches(name) {
			return r.kind
		}
	}
	return Unknown
}

func (r rule) matches(name string) bool {
	for _, e := range r.exact {
		if name == e {
			return true
		}
	}
	for _, c := range r.contains {
		if strings.Contains(name, c) {
			return true
		}
	}
	return false
}
