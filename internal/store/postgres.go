package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash)
		VALUES ($1, $2, LOWER($3), $4)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ---- notes ----

const noteColumns = `id, owner_id, notebook_id, title, content, format, tags, is_public, status, parent_note_id, is_deleted, created_at, updated_at`

func (s *PostgresStore) scanNote(row interface{ Scan(...any) error }) (Note, error) {
	var note Note
	var tags []byte
	err := row.Scan(&note.ID, &note.OwnerID, &note.NotebookID, &note.Title, &note.Content,
		&note.Format, &tags, &note.IsPublic, &note.Status, &note.ParentNoteID,
		&note.IsDeleted, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return Note{}, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &note.Tags); err != nil {
			return Note{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return note, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func (s *PostgresStore) InsertNote(ctx context.Context, note Note) error {
	tags, err := marshalTags(note.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, owner_id, notebook_id, title, content, format, tags, is_public, status, parent_note_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, note.ID, note.OwnerID, note.NotebookID, note.Title, note.Content, note.Format, tags,
		note.IsPublic, note.Status, note.ParentNoteID)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetNote(ctx context.Context, noteID string) (Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE id=$1 AND is_deleted=FALSE
	`, noteID)
	return s.scanNote(row)
}

// UpdateNote writes the editable fields of a note and returns the row as
// stored, including the server-side updated_at. This is the autosave
// executor's target: the returned note becomes the coordinator's new
// persisted reference.
func (s *PostgresStore) UpdateNote(ctx context.Context, note Note) (Note, error) {
	tags, err := marshalTags(note.Tags)
	if err != nil {
		return Note{}, fmt.Errorf("encode tags: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE notes
		SET title=$2, content=$3, format=$4, tags=$5, is_public=$6, status=$7, updated_at=NOW()
		WHERE id=$1 AND is_deleted=FALSE
		RETURNING `+noteColumns+`
	`, note.ID, note.Title, note.Content, note.Format, tags, note.IsPublic, note.Status)
	saved, err := s.scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Note{}, err
		}
		return Note{}, fmt.Errorf("update note: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, ownerID string, filter NoteFilter) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner_id=$1 AND is_deleted=FALSE`
	args := []any{ownerID}
	argN := 2
	if filter.NotebookID != "" {
		query += fmt.Sprintf(" AND notebook_id=$%d", argN)
		args = append(args, filter.NotebookID)
		argN++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status=$%d", argN)
		args = append(args, filter.Status)
		argN++
	}
	if filter.Tag != "" {
		query += fmt.Sprintf(" AND tags @> to_jsonb(ARRAY[$%d::text])", argN)
		args = append(args, filter.Tag)
		argN++
	}
	query += " ORDER BY updated_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", argN)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		note, err := s.scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

// SoftDeleteNote marks a note deleted without dropping the row, so a
// failed autosave can never race a hard delete.
func (s *PostgresStore) SoftDeleteNote(ctx context.Context, noteID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET is_deleted=TRUE, updated_at=NOW() WHERE id=$1 AND is_deleted=FALSE
	`, noteID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) MoveNote(ctx context.Context, noteID string, notebookID *string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notes SET notebook_id=$2, updated_at=NOW() WHERE id=$1 AND is_deleted=FALSE
	`, noteID, notebookID)
	if err != nil {
		return fmt.Errorf("move note: %w", err)
	}
	return nil
}

// ---- notebooks ----

func (s *PostgresStore) InsertNotebook(ctx context.Context, nb Notebook) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notebooks (id, owner_id, name, description, sort_order)
		VALUES ($1, $2, $3, $4, $5)
	`, nb.ID, nb.OwnerID, nb.Name, nb.Description, nb.SortOrder)
	if err != nil {
		return fmt.Errorf("insert notebook: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotebooks(ctx context.Context, ownerID string) ([]Notebook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, description, sort_order, created_at, updated_at
		FROM notebooks WHERE owner_id=$1
		ORDER BY sort_order, name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	defer rows.Close()

	notebooks := make([]Notebook, 0)
	for rows.Next() {
		var nb Notebook
		if err := rows.Scan(&nb.ID, &nb.OwnerID, &nb.Name, &nb.Description, &nb.SortOrder, &nb.CreatedAt, &nb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan notebook: %w", err)
		}
		notebooks = append(notebooks, nb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notebooks: %w", err)
	}
	return notebooks, nil
}

func (s *PostgresStore) GetNotebook(ctx context.Context, notebookID string) (Notebook, error) {
	var nb Notebook
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, sort_order, created_at, updated_at
		FROM notebooks WHERE id=$1
	`, notebookID).Scan(&nb.ID, &nb.OwnerID, &nb.Name, &nb.Description, &nb.SortOrder, &nb.CreatedAt, &nb.UpdatedAt)
	if err != nil {
		return Notebook{}, err
	}
	return nb, nil
}

func (s *PostgresStore) UpdateNotebook(ctx context.Context, notebookID, name, description string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notebooks SET name=$2, description=$3, updated_at=NOW() WHERE id=$1
	`, notebookID, name, description)
	if err != nil {
		return fmt.Errorf("update notebook: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteNotebook(ctx context.Context, notebookID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notebooks WHERE id=$1`, notebookID)
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	return nil
}

func (s *PostgresStore) NotebookNoteCount(ctx context.Context, notebookID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notes WHERE notebook_id=$1 AND is_deleted=FALSE
	`, notebookID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notebook notes: %w", err)
	}
	return count, nil
}

// ---- comments ----

func (s *PostgresStore) InsertComment(ctx context.Context, comment Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, note_id, author_id, body, parent_comment_id)
		VALUES ($1, $2, $3, $4, $5)
	`, comment.ID, comment.NoteID, comment.AuthorID, comment.Body, comment.ParentCommentID)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListComments(ctx context.Context, noteID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.note_id, c.author_id, COALESCE(u.display_name, ''), c.body, c.parent_comment_id, c.created_at
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.note_id=$1
		ORDER BY c.created_at
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.NoteID, &c.AuthorID, &c.AuthorName, &c.Body, &c.ParentCommentID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// ---- reactions ----

// ToggleReaction adds the reaction if absent and removes it if present.
func (s *PostgresStore) ToggleReaction(ctx context.Context, noteID, userID, emoji string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM reactions WHERE note_id=$1 AND user_id=$2 AND emoji=$3
	`, noteID, userID, emoji)
	if err != nil {
		return fmt.Errorf("toggle reaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("toggle reaction: %w", err)
	}
	if affected > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reactions (note_id, user_id, emoji)
		VALUES ($1, $2, $3)
		ON CONFLICT (note_id, user_id, emoji) DO NOTHING
	`, noteID, userID, emoji)
	if err != nil {
		return fmt.Errorf("toggle reaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListReactionCounts(ctx context.Context, noteID string) ([]ReactionCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT note_id, emoji, COUNT(*)
		FROM reactions WHERE note_id=$1
		GROUP BY note_id, emoji
		ORDER BY emoji
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	counts := make([]ReactionCount, 0)
	for rows.Next() {
		var rc ReactionCount
		if err := rows.Scan(&rc.NoteID, &rc.Emoji, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reactions: %w", err)
	}
	return counts, nil
}

// ---- refresh sessions (Postgres fallback when Redis is not configured) ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.display_name, u.email
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash).Scan(&user.ID, &user.DisplayName, &user.Email)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
