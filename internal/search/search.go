// Package search provides full-text search over notes and comments,
// backed by Meilisearch with a PostgreSQL FTS fallback.
package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultNote    ResultType = "note"
	ResultComment ResultType = "comment"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	NoteID  string     `json:"noteId"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
}

// Query describes a search request. OwnerID scopes results to one user's
// notes and is always required.
type Query struct {
	Text             string
	OwnerID          string
	FilterType       ResultType // empty = all types
	FilterNotebookID string
	Limit            int
	Offset           int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexNote(n NoteRecord) error
	IndexComment(c CommentRecord) error
	DeleteNote(id string) error
}

// NoteRecord is the data we index for a note.
type NoteRecord struct {
	ID         string   `json:"id"`
	OwnerID    string   `json:"ownerId"`
	NotebookID string   `json:"notebookId"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Status     string   `json:"status"`
}

// CommentRecord is the data we index for a comment.
type CommentRecord struct {
	ID      string `json:"id"`
	NoteID  string `json:"noteId"`
	OwnerID string `json:"ownerId"`
	Body    string `json:"body"`
}
