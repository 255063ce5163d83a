package app

import (
	"context"

	"inkpad/api/internal/export"
	"inkpad/api/internal/store"
)

// ExportStore adapts the persistence layer to what the export service
// needs. Author names are resolved here so the export package never
// touches user records.
type ExportStore struct {
	Store *store.PostgresStore
}

func (e ExportStore) GetNoteForExport(ctx context.Context, id string) (export.NoteInfo, error) {
	note, err := e.Store.GetNote(ctx, id)
	if err != nil {
		return export.NoteInfo{}, err
	}
	author := ""
	if owner, err := e.Store.GetUserByID(ctx, note.OwnerID); err == nil {
		author = owner.DisplayName
	}
	return export.NoteInfo{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Format:    note.Format,
		Tags:      note.Tags,
		Author:    author,
		UpdatedAt: note.UpdatedAt,
	}, nil
}

func (e ExportStore) ListCommentsForExport(ctx context.Context, noteID string) ([]export.CommentInfo, error) {
	comments, err := e.Store.ListComments(ctx, noteID)
	if err != nil {
		return nil, err
	}
	infos := make([]export.CommentInfo, 0, len(comments))
	for _, c := range comments {
		infos = append(infos, export.CommentInfo{
			Author:    c.AuthorName,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}
	return infos, nil
}
