package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Tables(t *testing.T) {
	for _, r := range rules {
		for _, name := range r.exact {
			assert.Equal(t, r.kind, Classify(name), "exact %q", name)
		}
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		reaction string
		expected Kind
	}{
		{"thumbs up", "+1", Approve},
		{"thumbs up with skin tone", "+1::skin-tone-3", Approve},
		{"white check mark", "white_check_mark", Approve},
		{"heavy check mark", "heavy_check_mark", Approve},
		{"colons are trimmed", ":lgtm:", Approve},
		{"upper case", "THUMBSUP", Approve},
		{"memo", "memo", Comment},
		{"custom comment emoji", "left_a_comment", Comment},
		{"tada", "tada", Merge},
		{"custom merged emoji", "merged", Merge},
		{"custom merge emoji", "merge_request_merged", Merge},
		{"x", "x", Stop},
		{"octagonal sign", "octagonal_sign", Stop},
		{"custom stop emoji", "stop-tracking", Stop},
		{"wrench", "wrench", Fixed},
		{"custom fixed emoji", "fixed", Fixed},
		{"fix", "fix", Fixed},
		{"custom fixed with suffix", "fixed_it", Fixed},
		{"stop", "stop", Stop},
		{"stopwatch", "stopwatch", Unknown},
		{"bus stop", "bus_stop", Unknown},
		{"prefix", "prefix", Unknown},
		{"mergeable", "mergeable", Unknown},
		{"disapprove", "disapprove", Unknown},
		{"speech without balloon", "speechless", Unknown},
		{"unrelated", "smile", Unknown},
		{"x is not a substring rule", "xray", Unknown},
		{"empty", "", Unknown},
		{"blank", "  ", Unknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.reaction))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// "approve" и "merge" одновременно: побеждает правило, стоящее раньше.
	assert.Equal(t, Approve, Classify("approve_and_merge"))
	// "comment" и "fixed" одновременно.
	assert.Equal(t, Comment, Classify("comment_fixed"))
	// "merge" и "stop" одновременно.
	assert.Equal(t, Merge, Classify("stop_merge"))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "approve", Approve.String())
	assert.Equal(t, "fixed", Fixed.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
