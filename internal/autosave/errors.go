package autosave

import "errors"

var (
	// ErrMissingID means the snapshot carries no note identity, so there
	// is nothing to update.
	ErrMissingID = errors.New("autosave: snapshot has no note id")
	// ErrSaveInFlight means a ForceSave arrived while an earlier save was
	// still pending. The caller may retry once the pending save resolves.
	ErrSaveInFlight = errors.New("autosave: save already in flight")
	// ErrSessionClosed means the editing session was torn down.
	ErrSessionClosed = errors.New("autosave: session closed")
)
