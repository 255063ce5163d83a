package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"inkpad/api/internal/auth"
	"inkpad/api/internal/authpw"
	"inkpad/api/internal/autosave"
	"inkpad/api/internal/config"
	"inkpad/api/internal/export"
	"inkpad/api/internal/search"
	"inkpad/api/internal/store"
	"inkpad/api/internal/title"
	"inkpad/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	JTI          string
	ExpiresAt    time.Time
}

// NoteInput is the editable state of a note as sent by the client.
type NoteInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Format     string   `json:"format"`
	Tags       []string `json:"tags"`
	IsPublic   bool     `json:"isPublic"`
	Status     string   `json:"status"`
	NotebookID string   `json:"notebookId"`
}

var allowedNoteFormats = map[string]struct{}{
	"text":   {},
	"doodle": {},
}

var allowedNoteStatuses = map[string]struct{}{
	"active":   {},
	"archived": {},
}

type dataStore interface {
	Ping(ctx context.Context) error
	GetUserByID(context.Context, string) (store.User, error)
	InsertNote(context.Context, store.Note) error
	GetNote(context.Context, string) (store.Note, error)
	UpdateNote(context.Context, store.Note) (store.Note, error)
	ListNotes(context.Context, string, store.NoteFilter) ([]store.Note, error)
	SoftDeleteNote(context.Context, string) error
	MoveNote(context.Context, string, *string) error
	InsertNotebook(context.Context, store.Notebook) error
	ListNotebooks(context.Context, string) ([]store.Notebook, error)
	GetNotebook(context.Context, string) (store.Notebook, error)
	UpdateNotebook(context.Context, string, string, string) error
	DeleteNotebook(context.Context, string) error
	NotebookNoteCount(context.Context, string) (int, error)
	InsertComment(context.Context, store.Comment) error
	ListComments(context.Context, string) ([]store.Comment, error)
	ToggleReaction(context.Context, string, string, string) error
	ListReactionCounts(context.Context, string) ([]store.ReactionCount, error)
}

// sessionStore holds refresh sessions. Redis when configured, Postgres
// otherwise; both stores satisfy this.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexNote(n search.NoteRecord)
	IndexComment(c search.CommentRecord)
	DeleteNote(id string)
}

type exportService interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	search   searchService
	export   exportService
	authpw   *authpw.Service

	// One autosave coordinator per signed-in user. The coordinator itself
	// tracks which note the user is editing and reseeds on switch.
	coordMu sync.Mutex
	coords  map[string]*autosave.Coordinator
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, searchSvc *search.Service, exportSvc *export.Service, authSvc *authpw.Service) *Service {
	s := &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		authpw:   authSvc,
		coords:   make(map[string]*autosave.Coordinator),
	}
	if searchSvc != nil {
		s.search = searchSvc
	}
	if exportSvc != nil {
		s.export = exportSvc
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close shuts down every autosave coordinator, cancelling pending saves.
func (s *Service) Close() {
	s.coordMu.Lock()
	defer s.coordMu.Unlock()
	for _, c := range s.coords {
		c.Close()
	}
	s.coords = make(map[string]*autosave.Coordinator)
}

// ---- sessions ----

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	if s.authpw == nil {
		return Session{}, domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
	}
	user, err := s.authpw.SignUp(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, req authpw.SignInRequest) (Session, error) {
	if s.authpw == nil {
		return Session{}, domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
	}
	user, err := s.authpw.SignIn(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	ref, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, ref.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) SignOut(ctx context.Context, session Session, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	s.coordMu.Lock()
	if c, ok := s.coords[session.UserID]; ok {
		c.Close()
		delete(s.coords, session.UserID)
	}
	s.coordMu.Unlock()
	return nil
}

// ---- autosave ----

func (s *Service) coordinatorFor(userID string) *autosave.Coordinator {
	s.coordMu.Lock()
	defer s.coordMu.Unlock()
	if c, ok := s.coords[userID]; ok {
		return c
	}
	opts := autosave.DefaultOptions()
	opts.Save = s.persistSnapshot
	opts.OnSave = s.indexSnapshot
	opts.OnError = func(err error) {
		log.Printf("autosave: background save failed for user %s: %v", userID, err)
	}
	opts.MinChangeThreshold = s.cfg.AutosaveMinChange
	opts.Debounce = s.cfg.AutosaveDebounce
	opts.Enabled = s.cfg.AutosaveEnabled
	c := autosave.NewCoordinator(opts)
	s.coords[userID] = c
	return c
}

// persistSnapshot is the save executor handed to every coordinator. A
// blank title is derived from the content before the write so autosaved
// notes never end up nameless.
func (s *Service) persistSnapshot(ctx context.Context, snap autosave.Snapshot) (autosave.Snapshot, error) {
	note := noteFromSnapshot(snap)
	if strings.TrimSpace(note.Title) == "" {
		note.Title = title.FirstLine(note.Content)
	}
	saved, err := s.store.UpdateNote(ctx, note)
	if err != nil {
		return autosave.Snapshot{}, err
	}
	return snapshotFromNote(saved), nil
}

func (s *Service) indexSnapshot(snap autosave.Snapshot) {
	if s.search == nil {
		return
	}
	note, err := s.store.GetNote(context.Background(), snap.ID)
	if err != nil {
		return
	}
	s.search.IndexNote(noteRecord(note))
}

func noteFromSnapshot(snap autosave.Snapshot) store.Note {
	note := store.Note{
		ID:       snap.ID,
		OwnerID:  snap.OwnerID,
		Title:    snap.Title,
		Content:  snap.Content,
		Format:   snap.Format,
		Tags:     snap.Tags,
		IsPublic: snap.IsPublic,
		Status:   snap.Status,
	}
	if snap.ParentID != "" {
		parent := snap.ParentID
		note.ParentNoteID = &parent
	}
	return note
}

func snapshotFromNote(note store.Note) autosave.Snapshot {
	snap := autosave.Snapshot{
		ID:        note.ID,
		OwnerID:   note.OwnerID,
		Title:     note.Title,
		Content:   note.Content,
		Format:    note.Format,
		Tags:      note.Tags,
		IsPublic:  note.IsPublic,
		Status:    note.Status,
		UpdatedAt: note.UpdatedAt,
	}
	if note.ParentNoteID != nil {
		snap.ParentID = *note.ParentNoteID
	}
	return snap
}

func noteRecord(note store.Note) search.NoteRecord {
	notebookID := ""
	if note.NotebookID != nil {
		notebookID = *note.NotebookID
	}
	return search.NoteRecord{
		ID:         note.ID,
		OwnerID:    note.OwnerID,
		NotebookID: notebookID,
		Title:      note.Title,
		Content:    note.Content,
		Tags:       note.Tags,
		Status:     note.Status,
	}
}

// ObserveDraft feeds one editor state into the owner's autosave
// coordinator. The write happens later, after the debounce window, and
// only if the change is significant.
func (s *Service) ObserveDraft(ctx context.Context, session Session, noteID string, input NoteInput) error {
	note, err := s.ownedNote(ctx, session, noteID)
	if err != nil {
		return err
	}
	snap, err := draftSnapshot(note, input)
	if err != nil {
		return err
	}
	coord := s.coordinatorFor(session.UserID)
	coord.Seed(snapshotFromNote(note))
	coord.Observe(snap)
	return nil
}

// SaveNote bypasses the debounce and saves immediately. Returns the
// persisted note and whether a write actually happened; an unchanged
// draft is a no-op, not an error.
func (s *Service) SaveNote(ctx context.Context, session Session, noteID string, input NoteInput) (map[string]any, bool, error) {
	note, err := s.ownedNote(ctx, session, noteID)
	if err != nil {
		return nil, false, err
	}
	snap, err := draftSnapshot(note, input)
	if err != nil {
		return nil, false, err
	}
	coord := s.coordinatorFor(session.UserID)
	coord.Seed(snapshotFromNote(note))
	saved, didSave, err := coord.ForceSave(ctx, snap)
	if errors.Is(err, autosave.ErrSaveInFlight) {
		return nil, false, domainError(http.StatusConflict, "SAVE_IN_FLIGHT", "A save is already in progress for this note", nil)
	}
	if err != nil {
		return nil, false, err
	}
	if !didSave {
		return noteJSON(note), false, nil
	}
	return noteJSON(noteFromSnapshotPreserving(saved, note)), true, nil
}

// noteFromSnapshotPreserving maps a confirmed snapshot back onto the
// stored note, keeping fields the snapshot does not carry.
func noteFromSnapshotPreserving(snap autosave.Snapshot, base store.Note) store.Note {
	base.Title = snap.Title
	base.Content = snap.Content
	base.Format = snap.Format
	base.Tags = snap.Tags
	base.IsPublic = snap.IsPublic
	base.Status = snap.Status
	base.UpdatedAt = snap.UpdatedAt
	return base
}

func draftSnapshot(note store.Note, input NoteInput) (autosave.Snapshot, error) {
	format := strings.TrimSpace(input.Format)
	if format == "" {
		format = note.Format
	}
	if _, ok := allowedNoteFormats[format]; !ok {
		return autosave.Snapshot{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be 'text' or 'doodle'", nil)
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = note.Status
	}
	if _, ok := allowedNoteStatuses[status]; !ok {
		return autosave.Snapshot{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be 'active' or 'archived'", nil)
	}
	tags := input.Tags
	if tags == nil {
		tags = note.Tags
	}
	snap := snapshotFromNote(note)
	snap.Title = input.Title
	snap.Content = input.Content
	snap.Format = format
	snap.Tags = tags
	snap.IsPublic = input.IsPublic
	snap.Status = status
	return snap, nil
}

// ---- notes ----

func (s *Service) ownedNote(ctx context.Context, session Session, noteID string) (store.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return store.Note{}, err
	}
	if note.OwnerID != session.UserID {
		return store.Note{}, sql.ErrNoRows
	}
	return note, nil
}

func (s *Service) CreateNote(ctx context.Context, session Session, input NoteInput) (map[string]any, error) {
	format := strings.TrimSpace(input.Format)
	if format == "" {
		format = "text"
	}
	if _, ok := allowedNoteFormats[format]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be 'text' or 'doodle'", nil)
	}

	noteTitle := strings.TrimSpace(input.Title)
	if noteTitle == "" {
		noteTitle = title.FromContent(input.Content)
	}

	note := store.Note{
		ID:       util.NewID("note"),
		OwnerID:  session.UserID,
		Title:    noteTitle,
		Content:  input.Content,
		Format:   format,
		Tags:     input.Tags,
		IsPublic: input.IsPublic,
		Status:   "active",
	}
	if notebookID := strings.TrimSpace(input.NotebookID); notebookID != "" {
		if _, err := s.ownedNotebook(ctx, session, notebookID); err != nil {
			return nil, err
		}
		note.NotebookID = &notebookID
	}
	if err := s.store.InsertNote(ctx, note); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexNote(noteRecord(note))
	}
	created, err := s.store.GetNote(ctx, note.ID)
	if err != nil {
		// The insert succeeded; fall back to what we wrote.
		created = note
	}
	return noteJSON(created), nil
}

func (s *Service) GetNote(ctx context.Context, session Session, noteID string) (map[string]any, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.OwnerID != session.UserID && !note.IsPublic {
		return nil, sql.ErrNoRows
	}
	return noteJSON(note), nil
}

func (s *Service) ListNotes(ctx context.Context, session Session, filter store.NoteFilter) ([]map[string]any, error) {
	notes, err := s.store.ListNotes(ctx, session.UserID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(notes))
	for _, note := range notes {
		items = append(items, noteJSON(note))
	}
	return items, nil
}

// UpdateNote is the direct update path (PUT). It writes through the
// coordinator's force-save so it can never race a pending autosave of
// the same note.
func (s *Service) UpdateNote(ctx context.Context, session Session, noteID string, input NoteInput) (map[string]any, error) {
	payload, _, err := s.SaveNote(ctx, session, noteID, input)
	return payload, err
}

func (s *Service) DeleteNote(ctx context.Context, session Session, noteID string) error {
	if _, err := s.ownedNote(ctx, session, noteID); err != nil {
		return err
	}
	if err := s.store.SoftDeleteNote(ctx, noteID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteNote(noteID)
	}
	return nil
}

func (s *Service) MoveNote(ctx context.Context, session Session, noteID, notebookID string) (map[string]any, error) {
	if _, err := s.ownedNote(ctx, session, noteID); err != nil {
		return nil, err
	}
	var target *string
	if trimmed := strings.TrimSpace(notebookID); trimmed != "" {
		if _, err := s.ownedNotebook(ctx, session, trimmed); err != nil {
			return nil, err
		}
		target = &trimmed
	}
	if err := s.store.MoveNote(ctx, noteID, target); err != nil {
		return nil, err
	}
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return noteJSON(note), nil
}

func noteJSON(note store.Note) map[string]any {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	item := map[string]any{
		"id":         note.ID,
		"ownerId":    note.OwnerID,
		"notebookId": nil,
		"title":      note.Title,
		"content":    note.Content,
		"format":     note.Format,
		"tags":       tags,
		"isPublic":   note.IsPublic,
		"status":     note.Status,
		"createdAt":  note.CreatedAt.Format(time.RFC3339),
		"updatedAt":  note.UpdatedAt.Format(time.RFC3339),
	}
	if note.NotebookID != nil {
		item["notebookId"] = *note.NotebookID
	}
	if note.ParentNoteID != nil {
		item["parentNoteId"] = *note.ParentNoteID
	}
	return item
}

// ---- notebooks ----

func (s *Service) ownedNotebook(ctx context.Context, session Session, notebookID string) (store.Notebook, error) {
	nb, err := s.store.GetNotebook(ctx, notebookID)
	if err != nil {
		return store.Notebook{}, err
	}
	if nb.OwnerID != session.UserID {
		return store.Notebook{}, sql.ErrNoRows
	}
	return nb, nil
}

func (s *Service) CreateNotebook(ctx context.Context, session Session, name, description string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	nb := store.Notebook{
		ID:          util.NewID("nb"),
		OwnerID:     session.UserID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.store.InsertNotebook(ctx, nb); err != nil {
		return nil, err
	}
	return notebookJSON(nb, 0), nil
}

func (s *Service) ListNotebooks(ctx context.Context, session Session) ([]map[string]any, error) {
	notebooks, err := s.store.ListNotebooks(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(notebooks))
	for _, nb := range notebooks {
		count, err := s.store.NotebookNoteCount(ctx, nb.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, notebookJSON(nb, count))
	}
	return items, nil
}

func (s *Service) UpdateNotebook(ctx context.Context, session Session, notebookID, name, description string) (map[string]any, error) {
	if _, err := s.ownedNotebook(ctx, session, notebookID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if err := s.store.UpdateNotebook(ctx, notebookID, name, strings.TrimSpace(description)); err != nil {
		return nil, err
	}
	nb, err := s.store.GetNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.NotebookNoteCount(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	return notebookJSON(nb, count), nil
}

func (s *Service) DeleteNotebook(ctx context.Context, session Session, notebookID string) error {
	if _, err := s.ownedNotebook(ctx, session, notebookID); err != nil {
		return err
	}
	count, err := s.store.NotebookNoteCount(ctx, notebookID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domainError(http.StatusConflict, "NOTEBOOK_NOT_EMPTY", "Notebook still contains notes", map[string]any{"noteCount": count})
	}
	return s.store.DeleteNotebook(ctx, notebookID)
}

func notebookJSON(nb store.Notebook, noteCount int) map[string]any {
	return map[string]any{
		"id":          nb.ID,
		"ownerId":     nb.OwnerID,
		"name":        nb.Name,
		"description": nb.Description,
		"noteCount":   noteCount,
		"createdAt":   nb.CreatedAt.Format(time.RFC3339),
	}
}

// ---- comments and reactions ----

func (s *Service) visibleNote(ctx context.Context, session Session, noteID string) (store.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return store.Note{}, err
	}
	if note.OwnerID != session.UserID && !note.IsPublic {
		return store.Note{}, sql.ErrNoRows
	}
	return note, nil
}

func (s *Service) AddComment(ctx context.Context, session Session, noteID, body, parentCommentID string) (map[string]any, error) {
	note, err := s.visibleNote(ctx, session, noteID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required", nil)
	}
	comment := store.Comment{
		ID:       util.NewID("cmt"),
		NoteID:   noteID,
		AuthorID: session.UserID,
		Body:     body,
	}
	if trimmed := strings.TrimSpace(parentCommentID); trimmed != "" {
		comment.ParentCommentID = &trimmed
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexComment(search.CommentRecord{
			ID:      comment.ID,
			NoteID:  noteID,
			OwnerID: note.OwnerID,
			Body:    body,
		})
	}
	comment.AuthorName = session.UserName
	return commentJSON(comment), nil
}

func (s *Service) ListComments(ctx context.Context, session Session, noteID string) ([]map[string]any, error) {
	if _, err := s.visibleNote(ctx, session, noteID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, noteID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		items = append(items, commentJSON(c))
	}
	return items, nil
}

func commentJSON(c store.Comment) map[string]any {
	item := map[string]any{
		"id":         c.ID,
		"noteId":     c.NoteID,
		"authorId":   c.AuthorID,
		"authorName": c.AuthorName,
		"body":       c.Body,
		"createdAt":  c.CreatedAt.Format(time.RFC3339),
	}
	if c.ParentCommentID != nil {
		item["parentCommentId"] = *c.ParentCommentID
	}
	return item
}

func (s *Service) ToggleReaction(ctx context.Context, session Session, noteID, emoji string) ([]map[string]any, error) {
	if _, err := s.visibleNote(ctx, session, noteID); err != nil {
		return nil, err
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "emoji is required", nil)
	}
	if len([]rune(emoji)) > 8 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "emoji is too long", nil)
	}
	if err := s.store.ToggleReaction(ctx, noteID, session.UserID, emoji); err != nil {
		return nil, err
	}
	return s.reactionCountsJSON(ctx, noteID)
}

func (s *Service) ListReactions(ctx context.Context, session Session, noteID string) ([]map[string]any, error) {
	if _, err := s.visibleNote(ctx, session, noteID); err != nil {
		return nil, err
	}
	return s.reactionCountsJSON(ctx, noteID)
}

func (s *Service) reactionCountsJSON(ctx context.Context, noteID string) ([]map[string]any, error) {
	counts, err := s.store.ListReactionCounts(ctx, noteID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(counts))
	for _, rc := range counts {
		items = append(items, map[string]any{
			"emoji": rc.Emoji,
			"count": rc.Count,
		})
	}
	return items, nil
}

// ---- search and export ----

func (s *Service) Search(ctx context.Context, session Session, text, filterType, notebookID string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}
	var rtyp search.ResultType
	switch strings.TrimSpace(filterType) {
	case "":
	case "note":
		rtyp = search.ResultNote
	case "comment":
		rtyp = search.ResultComment
	default:
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be 'note' or 'comment'", nil)
	}
	return s.search.Search(search.Query{
		Text:             text,
		OwnerID:          session.UserID,
		FilterType:       rtyp,
		FilterNotebookID: strings.TrimSpace(notebookID),
		Limit:            limit,
		Offset:           offset,
	}), nil
}

func (s *Service) ExportNote(ctx context.Context, session Session, noteID string, format export.Format, includeComments bool) (*export.Result, error) {
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export service not configured", nil)
	}
	if _, err := s.ownedNote(ctx, session, noteID); err != nil {
		return nil, err
	}
	return s.export.Export(ctx, export.Request{
		NoteID:          noteID,
		Format:          format,
		IncludeComments: includeComments,
	})
}
