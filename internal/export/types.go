// Package export renders notes to PDF and DOCX.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request contains parameters for an export operation
type Request struct {
	NoteID          string
	Format          Format
	IncludeComments bool
}

// NoteInfo holds the note data needed for export. Defined locally so the
// package stays decoupled from the storage layer.
type NoteInfo struct {
	ID        string
	Title     string
	Content   string
	Format    string // "text" or "doodle"
	Tags      []string
	Author    string
	UpdatedAt time.Time
}

// CommentInfo holds comment data for the optional discussion appendix.
type CommentInfo struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrNoteUnavailable indicates note content could not be loaded for export.
	ErrNoteUnavailable = errors.New("export note unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
