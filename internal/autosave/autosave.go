// Package autosave coordinates background persistence of edited notes.
// It decides whether an edit is significant enough to write, coalesces
// rapid edits behind a trailing-edge debounce, and guarantees at most one
// in-flight save per note at any time. Failed saves never touch the
// record of what was last persisted, so a retry compares against
// known-good state.
package autosave

import (
	"context"
	"time"
)

// Snapshot captures a note's editable state at one instant. Values are
// treated as immutable once handed to the coordinator.
type Snapshot struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Format    string    `json:"format"` // "text" or "doodle"
	Tags      []string  `json:"tags"`
	IsPublic  bool      `json:"isPublic"`
	Status    string    `json:"status"`
	ParentID  string    `json:"parentNoteId,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SaveFunc persists a snapshot and returns the backend-confirmed state.
// Implementations may retry or batch internally; the coordinator only
// cares that the returned snapshot reflects what is actually stored.
type SaveFunc func(ctx context.Context, snap Snapshot) (Snapshot, error)

// Trigger selects how saves are initiated.
type Trigger string

const (
	// TriggerContinuous schedules a debounced save after every observed change.
	TriggerContinuous Trigger = "continuous"
	// TriggerManual saves only on explicit ForceSave calls.
	TriggerManual Trigger = "manual"
)

// DefaultDebounce is the quiet period required before a scheduled save fires.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Coordinator. Save is required.
type Options struct {
	Save SaveFunc

	// OnSave runs after every successful save with the confirmed snapshot.
	OnSave func(Snapshot)
	// OnError runs after every failed attempt. Suppressed evaluations
	// (no significant change) report nothing.
	OnError func(error)

	// MinChangeThreshold is the minimum trimmed-content length delta that
	// counts as a significant change. Zero means every content change saves.
	MinChangeThreshold int
	// Debounce is the trailing-edge delay for continuous saves.
	Debounce time.Duration
	// Enabled gates continuous saving. ForceSave ignores it.
	Enabled bool
	Trigger Trigger
}

// DefaultOptions returns Options with continuous saving enabled and the
// default debounce window. The caller still has to supply Save.
func DefaultOptions() Options {
	return Options{
		Debounce: DefaultDebounce,
		Enabled:  true,
		Trigger:  TriggerContinuous,
	}
}
