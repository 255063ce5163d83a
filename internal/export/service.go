package export

import (
	"context"
	"fmt"
	"html/template"
)

// DataStore defines the data access the export service needs
type DataStore interface {
	GetNoteForExport(ctx context.Context, id string) (NoteInfo, error)
	ListCommentsForExport(ctx context.Context, noteID string) ([]CommentInfo, error)
}

// Service renders notes into downloadable files
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	note, err := s.store.GetNoteForExport(ctx, req.NoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoteUnavailable, err)
	}

	var contentHTML string
	switch note.Format {
	case "doodle":
		// Doodle payloads are canvas JSON; there is nothing textual to render.
		contentHTML = "<p><em>This note contains a drawing and cannot be exported as text.</em></p>"
	default:
		contentHTML = MarkdownToHTML(note.Content)
	}

	data := TemplateData{
		Title:       note.Title,
		ContentHTML: template.HTML(contentHTML),
		Author:      note.Author,
		UpdatedAt:   note.UpdatedAt,
		Tags:        note.Tags,
		Comments:    []TemplateComment{},
	}

	if req.IncludeComments {
		comments, err := s.store.ListCommentsForExport(ctx, req.NoteID)
		if err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}
		for _, c := range comments {
			data.Comments = append(data.Comments, TemplateComment{
				Author: c.Author,
				Body:   c.Body,
			})
		}
	}

	html, err := RenderNoteHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, note.Title)
	case FormatDOCX:
		return exportDOCX(html, note.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
