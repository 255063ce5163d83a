package title

import (
	"strings"
	"testing"
)

func TestFromContentEmpty(t *testing.T) {
	if got := FromContent(""); got != "" {
		t.Errorf("empty content should produce empty title, got %q", got)
	}
	if got := FromContent("   \n\t "); got != "" {
		t.Errorf("whitespace content should produce empty title, got %q", got)
	}
}

func TestFromContentShortContent(t *testing.T) {
	if got := FromContent("hello world"); got != "hello world" {
		t.Errorf("short content should be used whole, got %q", got)
	}
}

func TestFromContentStopsAtCharLimit(t *testing.T) {
	content := "one two three four five six seven eight nine ten eleven twelve"
	got := FromContent(content)
	if len(got) > DefaultConfig.BaseCharLimit+DefaultConfig.MaxExtraCharLimit {
		t.Errorf("title exceeds maximum budget: %q (%d chars)", got, len(got))
	}
	if !strings.HasPrefix(content, got) {
		t.Errorf("title must be a prefix of the content, got %q", got)
	}
	words := strings.Fields(got)
	if len(words) > DefaultConfig.MaxWords {
		t.Errorf("title exceeds max words: %d", len(words))
	}
}

func TestFromContentFirstWordAlwaysSelected(t *testing.T) {
	long := strings.Repeat("a", 80)
	if got := FromContent(long + " tail"); got != long {
		t.Errorf("a single overlong word is still selected, got %q", got)
	}
}

func TestFromContentLongWordsGetLargerBudget(t *testing.T) {
	// Average word length well above the threshold earns extra budget.
	content := "distributed infrastructure observability engineering handbook"
	got := FromContent(content)
	if len(got) <= DefaultConfig.BaseCharLimit {
		t.Skip("content did not exercise the extended budget")
	}
	if len(got) > DefaultConfig.BaseCharLimit+DefaultConfig.MaxExtraCharLimit {
		t.Errorf("extended budget exceeded its cap: %d chars", len(got))
	}
}

func TestFromContentPadsToMinimumLength(t *testing.T) {
	got := FromContent("a b c d e f g h i j")
	// Single-letter words would stop early on the word budget; padding
	// keeps appending until the minimum length or the word cap.
	if words := strings.Fields(got); len(words) != DefaultConfig.MaxWords {
		t.Errorf("expected padding up to %d words, got %d (%q)", DefaultConfig.MaxWords, len(words), got)
	}
}

func TestFromContentMaxWords(t *testing.T) {
	content := strings.Repeat("ab ", 20)
	words := strings.Fields(FromContent(content))
	if len(words) > DefaultConfig.MaxWords {
		t.Errorf("expected at most %d words, got %d", DefaultConfig.MaxWords, len(words))
	}
}

func TestFirstLine(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", Untitled},
		{"markdown only", "###***", Untitled},
		{"heading", "# Meeting notes\nmore text", "Meeting notes"},
		{"plain", "Grocery list", "Grocery list"},
		{"truncated", strings.Repeat("x", 60), strings.Repeat("x", 50)},
	}
	for _, tc := range cases {
		if got := FirstLine(tc.content); got != tc.want {
			t.Errorf("%s: FirstLine = %q, want %q", tc.name, got, tc.want)
		}
	}
}
