package autosave

import (
	"strings"
	"testing"
)

func snap(title, content string) Snapshot {
	return Snapshot{ID: "n1", Title: title, Content: content, Format: "text"}
}

func TestShouldSaveWithoutBaseline(t *testing.T) {
	if !ShouldSave(nil, snap("A", "hello"), 0) {
		t.Error("expected save when no baseline exists")
	}
	if !ShouldSave(nil, Snapshot{}, 1000) {
		t.Error("expected save for empty snapshot when no baseline exists")
	}
}

func TestShouldSaveIdenticalSnapshots(t *testing.T) {
	s := Snapshot{ID: "n1", Title: "A", Content: "hello", Format: "text", Tags: []string{"work", "ideas"}}
	for _, threshold := range []int{0, 1, 5, 1000} {
		if ShouldSave(&s, s, threshold) {
			t.Errorf("threshold %d: identical snapshots should not save", threshold)
		}
	}
}

func TestShouldSaveWhitespaceOnlyEdit(t *testing.T) {
	prev := snap("A", "hello")
	curr := snap("A", "  hello  ")
	if ShouldSave(&prev, curr, 0) {
		t.Error("whitespace-only edit should not save")
	}
}

func TestShouldSaveTitleChangeIgnoresThreshold(t *testing.T) {
	prev := snap("A", "x")
	curr := snap("B", "x")
	if !ShouldSave(&prev, curr, 1000) {
		t.Error("title change should save regardless of threshold")
	}
}

func TestShouldSaveFormatChange(t *testing.T) {
	prev := snap("A", "x")
	curr := prev
	curr.Format = "doodle"
	if !ShouldSave(&prev, curr, 1000) {
		t.Error("format change should save regardless of threshold")
	}
}

func TestShouldSaveTagChanges(t *testing.T) {
	prev := snap("A", "x")
	prev.Tags = []string{"work", "ideas"}

	added := prev
	added.Tags = []string{"work", "ideas", "later"}
	if !ShouldSave(&prev, added, 1000) {
		t.Error("tag addition should save")
	}

	reordered := prev
	reordered.Tags = []string{"ideas", "work"}
	if !ShouldSave(&prev, reordered, 1000) {
		t.Error("tag reorder should save")
	}

	same := prev
	same.Tags = []string{"work", "ideas"}
	if ShouldSave(&prev, same, 0) {
		t.Error("identical tags should not save on their own")
	}
}

func TestShouldSaveContentThresholdBoundary(t *testing.T) {
	prev := snap("A", strings.Repeat("a", 10))

	below := snap("A", strings.Repeat("a", 13))
	if ShouldSave(&prev, below, 5) {
		t.Error("delta 3 below threshold 5 should not save")
	}

	at := snap("A", strings.Repeat("a", 16))
	if !ShouldSave(&prev, at, 5) {
		t.Error("delta 6 at/above threshold 5 should save")
	}

	// Default threshold zero: any content change saves.
	if !ShouldSave(&prev, snap("A", strings.Repeat("a", 11)), 0) {
		t.Error("single-character change should save at threshold 0")
	}
}

func TestShouldSaveEmptyTransition(t *testing.T) {
	empty := snap("A", "")
	full := snap("A", "hi")
	if !ShouldSave(&empty, full, 1000) {
		t.Error("content appearing should save regardless of threshold")
	}
	if !ShouldSave(&full, empty, 1000) {
		t.Error("content vanishing should save regardless of threshold")
	}

	blank := snap("A", "   \n ")
	if !ShouldSave(&blank, full, 1000) {
		t.Error("whitespace-only previous content counts as empty")
	}
}
