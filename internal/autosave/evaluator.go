package autosave

import "strings"

// ShouldSave reports whether current differs from previous enough to be
// worth a write. previous is the last snapshot known to be persisted; nil
// means no baseline exists yet, which always warrants a save. The check is
// pure and reads only the fields a user can edit: title, format, tags and
// content. Rules apply in order, first match wins.
func ShouldSave(previous *Snapshot, current Snapshot, minChangeThreshold int) bool {
	if previous == nil {
		return true
	}
	if previous.Title != current.Title {
		return true
	}
	if previous.Format != current.Format {
		return true
	}
	if !tagsEqual(previous.Tags, current.Tags) {
		return true
	}

	prev := strings.TrimSpace(previous.Content)
	curr := strings.TrimSpace(current.Content)
	if prev == curr {
		// Whitespace-only edits are a no-op.
		return false
	}
	if prev == "" || curr == "" {
		// Content appeared or vanished; always significant.
		return true
	}

	diff := len(curr) - len(prev)
	if diff < 0 {
		diff = -diff
	}
	return diff >= minChangeThreshold
}

func tagsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
