// Package title derives a display title from freeform note content.
package title

import "strings"

// Config tunes how many words of content become the title. The character
// budget grows with the average word length already selected, so prose
// made of long words gets a little more room, up to a cap.
type Config struct {
	BaseCharLimit     int
	MinCharLength     int
	AvgWordThreshold  int
	ExtraPerLongWord  int
	MaxExtraCharLimit int
	MaxWords          int
}

// DefaultConfig matches the limits used across the app.
var DefaultConfig = Config{
	BaseCharLimit:     32,
	MinCharLength:     18,
	AvgWordThreshold:  6,
	ExtraPerLongWord:  2,
	MaxExtraCharLimit: 24,
	MaxWords:          8,
}

// Untitled is the fallback when content yields no usable title.
const Untitled = "Untitled Note"

// FromContent selects a prefix of whitespace-delimited words as the title,
// stopping once the running concatenation would exceed the adaptive
// character limit, then padding with further words while the result is
// shorter than the configured minimum.
func FromContent(content string) string {
	return FromContentWith(DefaultConfig, content)
}

// FromContentWith is FromContent with an explicit Config.
func FromContentWith(cfg Config, content string) string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return ""
	}

	var selected []string
	for _, word := range words {
		if len(selected) >= cfg.MaxWords {
			break
		}
		candidate := append(append([]string(nil), selected...), word)
		text := strings.Join(candidate, " ")
		if len(selected) == 0 || len(text) <= charLimit(cfg, candidate) {
			selected = candidate
			continue
		}
		break
	}

	result := strings.Join(selected, " ")
	for cursor := len(selected); len(result) < cfg.MinCharLength &&
		cursor < len(words) && len(selected) < cfg.MaxWords; cursor++ {
		selected = append(selected, words[cursor])
		result = strings.Join(selected, " ")
	}
	return result
}

// charLimit computes the character budget for the words selected so far.
func charLimit(cfg Config, words []string) int {
	if len(words) == 0 {
		return cfg.BaseCharLimit
	}
	total := 0
	for _, word := range words {
		total += len(word)
	}
	average := float64(total) / float64(len(words))
	extra := int(average+0.5) - cfg.AvgWordThreshold
	if extra < 0 {
		extra = 0
	}
	extra *= cfg.ExtraPerLongWord
	if extra > cfg.MaxExtraCharLimit {
		extra = cfg.MaxExtraCharLimit
	}
	return cfg.BaseCharLimit + extra
}

// FirstLine strips markdown punctuation and returns the first line of
// content truncated to 50 characters, or Untitled when nothing remains.
// Used where a cheap fallback title is enough (share pages, exports).
func FirstLine(content string) string {
	if content == "" {
		return Untitled
	}
	plain := strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '#', '*', '`', '_', '~':
			return -1
		}
		return r
	}, content))
	if plain == "" {
		return Untitled
	}
	line := strings.TrimSpace(strings.SplitN(plain, "\n", 2)[0])
	if line == "" {
		return Untitled
	}
	if len(line) > 50 {
		line = line[:50]
	}
	return line
}
