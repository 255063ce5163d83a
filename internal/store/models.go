package store

import "time"

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Note is the persisted form of a note. Tags are stored as a JSONB array
// in document order; autosave significance checks depend on that order
// being preserved.
type Note struct {
	ID           string
	OwnerID      string
	NotebookID   *string
	Title        string
	Content      string
	Format       string // "text" or "doodle"
	Tags         []string
	IsPublic     bool
	Status       string
	ParentNoteID *string
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Notebook struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Comment struct {
	ID              string
	NoteID          string
	AuthorID        string
	AuthorName      string
	Body            string
	ParentCommentID *string
	CreatedAt       time.Time
}

type ReactionCount struct {
	NoteID string
	Emoji  string
	Count  int
}

// NoteFilter narrows ListNotes results. Zero values mean "no filter".
type NoteFilter struct {
	NotebookID string
	Status     string
	Tag        string
	Limit      int
}
