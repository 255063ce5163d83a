package app

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"inkpad/api/internal/auth"
	"inkpad/api/internal/autosave"
	"inkpad/api/internal/config"
	"inkpad/api/internal/search"
	"inkpad/api/internal/store"
)

type fakeStore struct {
	getUserByIDFn       func(context.Context, string) (store.User, error)
	insertNoteFn        func(context.Context, store.Note) error
	getNoteFn           func(context.Context, string) (store.Note, error)
	updateNoteFn        func(context.Context, store.Note) (store.Note, error)
	listNotesFn         func(context.Context, string, store.NoteFilter) ([]store.Note, error)
	softDeleteNoteFn    func(context.Context, string) error
	moveNoteFn          func(context.Context, string, *string) error
	getNotebookFn       func(context.Context, string) (store.Notebook, error)
	notebookNoteCountFn func(context.Context, string) (int, error)
	deleteNotebookFn    func(context.Context, string) error
	insertCommentFn     func(context.Context, store.Comment) error
	toggleReactionFn    func(context.Context, string, string, string) error
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, userID)
	}
	return store.User{ID: userID, DisplayName: "Avery", Email: "avery@example.com"}, nil
}
func (f *fakeStore) InsertNote(ctx context.Context, note store.Note) error {
	if f.insertNoteFn != nil {
		return f.insertNoteFn(ctx, note)
	}
	return nil
}
func (f *fakeStore) GetNote(ctx context.Context, id string) (store.Note, error) {
	if f.getNoteFn != nil {
		return f.getNoteFn(ctx, id)
	}
	return store.Note{}, sql.ErrNoRows
}
func (f *fakeStore) UpdateNote(ctx context.Context, note store.Note) (store.Note, error) {
	if f.updateNoteFn != nil {
		return f.updateNoteFn(ctx, note)
	}
	note.UpdatedAt = time.Now()
	return note, nil
}
func (f *fakeStore) ListNotes(ctx context.Context, ownerID string, filter store.NoteFilter) ([]store.Note, error) {
	if f.listNotesFn != nil {
		return f.listNotesFn(ctx, ownerID, filter)
	}
	return nil, nil
}
func (f *fakeStore) SoftDeleteNote(ctx context.Context, id string) error {
	if f.softDeleteNoteFn != nil {
		return f.softDeleteNoteFn(ctx, id)
	}
	return nil
}
func (f *fakeStore) MoveNote(ctx context.Context, id string, notebookID *string) error {
	if f.moveNoteFn != nil {
		return f.moveNoteFn(ctx, id, notebookID)
	}
	return nil
}
func (f *fakeStore) InsertNotebook(context.Context, store.Notebook) error { return nil }
func (f *fakeStore) ListNotebooks(context.Context, string) ([]store.Notebook, error) {
	return nil, nil
}
func (f *fakeStore) GetNotebook(ctx context.Context, id string) (store.Notebook, error) {
	if f.getNotebookFn != nil {
		return f.getNotebookFn(ctx, id)
	}
	return store.Notebook{}, sql.ErrNoRows
}
func (f *fakeStore) UpdateNotebook(context.Context, string, string, string) error { return nil }
func (f *fakeStore) DeleteNotebook(ctx context.Context, id string) error {
	if f.deleteNotebookFn != nil {
		return f.deleteNotebookFn(ctx, id)
	}
	return nil
}
func (f *fakeStore) NotebookNoteCount(ctx context.Context, id string) (int, error) {
	if f.notebookNoteCountFn != nil {
		return f.notebookNoteCountFn(ctx, id)
	}
	return 0, nil
}
func (f *fakeStore) InsertComment(ctx context.Context, comment store.Comment) error {
	if f.insertCommentFn != nil {
		return f.insertCommentFn(ctx, comment)
	}
	return nil
}
func (f *fakeStore) ListComments(context.Context, string) ([]store.Comment, error) {
	return nil, nil
}
func (f *fakeStore) ToggleReaction(ctx context.Context, noteID, userID, emoji string) error {
	if f.toggleReactionFn != nil {
		return f.toggleReactionFn(ctx, noteID, userID, emoji)
	}
	return nil
}
func (f *fakeStore) ListReactionCounts(context.Context, string) ([]store.ReactionCount, error) {
	return nil, nil
}

type fakeSessions struct {
	mu      sync.Mutex
	saved   map[string]string // token hash -> user ID
	revoked []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: make(map[string]string)}
}

func (f *fakeSessions) SaveRefreshSession(_ context.Context, tokenHash, userID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[tokenHash] = userID
	return nil
}

func (f *fakeSessions) LookupRefreshSession(_ context.Context, tokenHash string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.saved[tokenHash]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return store.User{ID: userID}, nil
}

func (f *fakeSessions) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, tokenHash)
	f.revoked = append(f.revoked, tokenHash)
	return nil
}

type fakeSearch struct {
	mu      sync.Mutex
	indexed []search.NoteRecord
	deleted []string
}

func (f *fakeSearch) Search(q search.Query) search.Response {
	return search.Response{Results: []search.Result{}, Query: q.Text}
}
func (f *fakeSearch) IndexNote(n search.NoteRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, n)
}
func (f *fakeSearch) IndexComment(search.CommentRecord) {}
func (f *fakeSearch) DeleteNote(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:        "test-secret",
		AccessTTL:        time.Hour,
		RefreshTTL:       24 * time.Hour,
		AutosaveDebounce: 10 * time.Millisecond,
		AutosaveEnabled:  true,
	}
}

func newTestService(fs *fakeStore) *Service {
	return &Service{
		cfg:      testConfig(),
		store:    fs,
		sessions: newFakeSessions(),
		coords:   make(map[string]*autosave.Coordinator),
	}
}

func storedNote() store.Note {
	return store.Note{
		ID:      "note-1",
		OwnerID: "usr-1",
		Title:   "Groceries",
		Content: "milk",
		Format:  "text",
		Tags:    []string{"errands"},
		Status:  "active",
	}
}

func ownerSession() Session {
	return Session{UserID: "usr-1", UserName: "Avery"}
}

func TestCreateNoteDerivesTitleFromContent(t *testing.T) {
	var inserted store.Note
	fs := &fakeStore{
		insertNoteFn: func(_ context.Context, note store.Note) error {
			inserted = note
			return nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	payload, err := svc.CreateNote(context.Background(), ownerSession(), NoteInput{
		Content: "Buy milk and eggs",
	})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if inserted.Title != "Buy milk and eggs" {
		t.Errorf("expected derived title %q, got %q", "Buy milk and eggs", inserted.Title)
	}
	if inserted.Format != "text" {
		t.Errorf("expected default format text, got %q", inserted.Format)
	}
	if inserted.Status != "active" {
		t.Errorf("expected status active, got %q", inserted.Status)
	}
	if payload["title"] != "Buy milk and eggs" {
		t.Errorf("payload title mismatch: %v", payload["title"])
	}
}

func TestCreateNoteRejectsUnknownFormat(t *testing.T) {
	svc := newTestService(&fakeStore{})
	defer svc.Close()

	_, err := svc.CreateNote(context.Background(), ownerSession(), NoteInput{Format: "pdf"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestSaveNotePersistsChangedDraft(t *testing.T) {
	var updated store.Note
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			return storedNote(), nil
		},
		updateNoteFn: func(_ context.Context, note store.Note) (store.Note, error) {
			updated = note
			note.UpdatedAt = time.Now()
			return note, nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	payload, saved, err := svc.SaveNote(context.Background(), ownerSession(), "note-1", NoteInput{
		Title:   "Groceries",
		Content: "milk, eggs, bread",
	})
	if err != nil {
		t.Fatalf("SaveNote failed: %v", err)
	}
	if !saved {
		t.Fatal("expected a write for a changed draft")
	}
	if updated.Content != "milk, eggs, bread" {
		t.Errorf("expected updated content, got %q", updated.Content)
	}
	if payload["content"] != "milk, eggs, bread" {
		t.Errorf("payload content mismatch: %v", payload["content"])
	}
}

func TestSaveNoteUnchangedDraftIsNoOp(t *testing.T) {
	updates := 0
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			return storedNote(), nil
		},
		updateNoteFn: func(_ context.Context, note store.Note) (store.Note, error) {
			updates++
			return note, nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	payload, saved, err := svc.SaveNote(context.Background(), ownerSession(), "note-1", NoteInput{
		Title:   "Groceries",
		Content: "milk  ", // trailing whitespace only
	})
	if err != nil {
		t.Fatalf("SaveNote failed: %v", err)
	}
	if saved {
		t.Error("whitespace-only change should not write")
	}
	if updates != 0 {
		t.Errorf("expected zero store updates, got %d", updates)
	}
	if payload["content"] != "milk" {
		t.Errorf("expected stored content back, got %v", payload["content"])
	}
}

func TestSaveNoteWhileInFlightConflicts(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			return storedNote(), nil
		},
		updateNoteFn: func(_ context.Context, note store.Note) (store.Note, error) {
			close(started)
			<-release
			return note, nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = svc.SaveNote(context.Background(), ownerSession(), "note-1", NoteInput{
			Title:   "Groceries",
			Content: "milk, eggs",
		})
	}()
	<-started

	_, _, err := svc.SaveNote(context.Background(), ownerSession(), "note-1", NoteInput{
		Title:   "Groceries",
		Content: "milk, eggs, bread",
	})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "SAVE_IN_FLIGHT" {
		t.Fatalf("expected SAVE_IN_FLIGHT, got %v", err)
	}

	close(release)
	<-done
}

func TestObserveDraftSavesAfterDebounce(t *testing.T) {
	type update struct {
		note store.Note
	}
	updates := make(chan update, 4)
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			return storedNote(), nil
		},
		updateNoteFn: func(_ context.Context, note store.Note) (store.Note, error) {
			updates <- update{note: note}
			note.UpdatedAt = time.Now()
			return note, nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	session := ownerSession()
	if err := svc.ObserveDraft(context.Background(), session, "note-1", NoteInput{
		Title:   "Groceries",
		Content: "milk, eggs",
	}); err != nil {
		t.Fatalf("ObserveDraft failed: %v", err)
	}
	if err := svc.ObserveDraft(context.Background(), session, "note-1", NoteInput{
		Title:   "Groceries",
		Content: "milk, eggs, bread",
	}); err != nil {
		t.Fatalf("ObserveDraft failed: %v", err)
	}

	select {
	case got := <-updates:
		if got.note.Content != "milk, eggs, bread" {
			t.Errorf("debounced save should carry the latest draft, got %q", got.note.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no save fired after debounce window")
	}

	select {
	case got := <-updates:
		t.Fatalf("rapid edits should coalesce into one save, got second write %q", got.note.Content)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestObserveDraftRejectsForeignNote(t *testing.T) {
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			note := storedNote()
			note.OwnerID = "usr-other"
			return note, nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	err := svc.ObserveDraft(context.Background(), ownerSession(), "note-1", NoteInput{Content: "x"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected not-found for foreign note, got %v", err)
	}
}

func TestGetNoteAllowsPublicReads(t *testing.T) {
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			note := storedNote()
			note.OwnerID = "usr-other"
			note.IsPublic = true
			return note, nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	payload, err := svc.GetNote(context.Background(), ownerSession(), "note-1")
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	if payload["isPublic"] != true {
		t.Errorf("expected public note payload, got %v", payload)
	}
}

func TestDeleteNoteRemovesFromIndex(t *testing.T) {
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			return storedNote(), nil
		},
	}
	idx := &fakeSearch{}
	svc := newTestService(fs)
	svc.search = idx
	defer svc.Close()

	if err := svc.DeleteNote(context.Background(), ownerSession(), "note-1"); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.deleted) != 1 || idx.deleted[0] != "note-1" {
		t.Errorf("expected note-1 removed from index, got %v", idx.deleted)
	}
}

func TestDeleteNotebookWithNotesConflicts(t *testing.T) {
	fs := &fakeStore{
		getNotebookFn: func(context.Context, string) (store.Notebook, error) {
			return store.Notebook{ID: "nb-1", OwnerID: "usr-1", Name: "Work"}, nil
		},
		notebookNoteCountFn: func(context.Context, string) (int, error) {
			return 3, nil
		},
		deleteNotebookFn: func(context.Context, string) error {
			t.Fatal("non-empty notebook must not be deleted")
			return nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	err := svc.DeleteNotebook(context.Background(), ownerSession(), "nb-1")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "NOTEBOOK_NOT_EMPTY" {
		t.Fatalf("expected NOTEBOOK_NOT_EMPTY, got %v", err)
	}
}

func TestAddCommentRequiresBody(t *testing.T) {
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			return storedNote(), nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	_, err := svc.AddComment(context.Background(), ownerSession(), "note-1", "   ", "")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestToggleReactionRejectsLongEmoji(t *testing.T) {
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			return storedNote(), nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	_, err := svc.ToggleReaction(context.Background(), ownerSession(), "note-1", "not-an-emoji")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchRejectsUnknownType(t *testing.T) {
	svc := newTestService(&fakeStore{})
	svc.search = &fakeSearch{}
	defer svc.Close()

	_, err := svc.Search(context.Background(), ownerSession(), "milk", "notebook", "", 20, 0)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestSearchScopesToSessionOwner(t *testing.T) {
	var seen search.Query
	svc := newTestService(&fakeStore{})
	svc.search = queryRecorder{&seen}
	defer svc.Close()

	if _, err := svc.Search(context.Background(), ownerSession(), "milk", "note", "nb-1", 5, 10); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if seen.OwnerID != "usr-1" {
		t.Errorf("expected search scoped to usr-1, got %q", seen.OwnerID)
	}
	if seen.FilterType != search.ResultNote || seen.FilterNotebookID != "nb-1" {
		t.Errorf("filters not forwarded: %+v", seen)
	}
	if seen.Limit != 5 || seen.Offset != 10 {
		t.Errorf("paging not forwarded: %+v", seen)
	}
}

type queryRecorder struct {
	q *search.Query
}

func (r queryRecorder) Search(q search.Query) search.Response {
	*r.q = q
	return search.Response{Results: []search.Result{}, Query: q.Text}
}
func (r queryRecorder) IndexNote(search.NoteRecord)       {}
func (r queryRecorder) IndexComment(search.CommentRecord) {}
func (r queryRecorder) DeleteNote(string)                 {}

func TestRefreshRotatesToken(t *testing.T) {
	sessions := newFakeSessions()
	svc := newTestService(&fakeStore{})
	svc.sessions = sessions
	defer svc.Close()

	first, err := svc.issueSession(context.Background(), store.User{ID: "usr-1", DisplayName: "Avery", Email: "avery@example.com"})
	if err != nil {
		t.Fatalf("issueSession failed: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh must rotate the refresh token")
	}
	if _, err := svc.Refresh(context.Background(), first.RefreshToken); err == nil {
		t.Error("the presented refresh token must be revoked")
	}
	if _, err := auth.ParseToken([]byte(svc.cfg.JWTSecret), second.Token); err != nil {
		t.Errorf("rotated access token does not parse: %v", err)
	}
}

func TestSignOutClosesCoordinator(t *testing.T) {
	fs := &fakeStore{
		getNoteFn: func(context.Context, string) (store.Note, error) {
			return storedNote(), nil
		},
	}
	svc := newTestService(fs)
	defer svc.Close()

	session := ownerSession()
	if err := svc.ObserveDraft(context.Background(), session, "note-1", NoteInput{Content: "draft"}); err != nil {
		t.Fatalf("ObserveDraft failed: %v", err)
	}
	if err := svc.SignOut(context.Background(), session, ""); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	svc.coordMu.Lock()
	_, ok := svc.coords[session.UserID]
	svc.coordMu.Unlock()
	if ok {
		t.Error("sign-out should tear down the user's coordinator")
	}
}
