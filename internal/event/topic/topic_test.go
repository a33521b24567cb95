package topic

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"blocks.inserted", "blocks.inserted", true},
		{"blocks.inserted", "blocks.removed", false},
		{"blocks.inserted", "blocks.*", true},
		{"blocks.inserted", "*", false},
		{"blocks.inserted", "**", true},
		{"toolbar.open", "**.open", true},
		{"toolbar.open", "*.*.open", false},
		{"blocks", "blocks.**", true},
		{"blocks.merged.done", "blocks.*", false},
		{"caret.moved", "", false},
	}

	for _, tt := range tests {
		if got := tt.topic.Matches(tt.pattern); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, tt := range []struct {
		topic Topic
		want  bool
	}{
		{"", false},
		{"blocks", true},
		{"blocks..moved", false},
		{".blocks", false},
		{"blocks.", false},
	} {
		if got := tt.topic.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestBase(t *testing.T) {
	for topic, want := range map[Topic]string{
		"blocks.moved": "moved",
		"caret":        "caret",
		"toolbar.plus": "plus",
	} {
		if got := topic.Base(); got != want {
			t.Errorf("%q.Base() = %q, want %q", topic, got, want)
		}
	}
}
