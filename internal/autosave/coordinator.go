package autosave

import (
	"context"
	"sync"
)

// Coordinator drives autosave for the note currently being edited. It owns
// at most one session at a time; observing a snapshot with a different note
// ID retires the previous session (cancelling any pending timer) and seeds
// a fresh one whose persisted reference is that first snapshot, so the
// first real edit after a switch is always evaluated against it.
type Coordinator struct {
	opts Options

	mu      sync.Mutex
	session *session
}

// NewCoordinator builds a Coordinator. Options.Save must be set; a zero
// Debounce falls back to DefaultDebounce and an empty Trigger means
// continuous.
func NewCoordinator(opts Options) *Coordinator {
	if opts.Save == nil {
		panic("autosave: Options.Save is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Trigger == "" {
		opts.Trigger = TriggerContinuous
	}
	return &Coordinator{opts: opts}
}

// Observe records the latest edited state of a note. In continuous mode it
// (re)schedules a debounced save; the save that eventually fires re-reads
// the most recent observed snapshot, so intermediate states are never
// written.
func (c *Coordinator) Observe(snap Snapshot) {
	c.sessionFor(snap).observe(snap)
}

// Seed establishes the persisted reference for a note without scheduling
// anything. Subsequent Observe and ForceSave calls for the same note are
// evaluated against the seeded state. Seeding the note already under edit
// is a no-op.
func (c *Coordinator) Seed(snap Snapshot) {
	c.sessionFor(snap)
}

// ForceSave evaluates and saves immediately, bypassing the debounce window
// but not the significance check or the single-flight guard. It reports
// the confirmed snapshot and whether a save actually ran; forcing a
// snapshot identical to the persisted reference is a no-op. A ForceSave
// arriving while an earlier save is still pending is rejected with
// ErrSaveInFlight rather than queued.
func (c *Coordinator) ForceSave(ctx context.Context, snap Snapshot) (Snapshot, bool, error) {
	if snap.ID == "" {
		return Snapshot{}, false, ErrMissingID
	}
	return c.sessionFor(snap).forceSave(ctx, snap)
}

// IsSaving reports whether a save is currently in flight.
func (c *Coordinator) IsSaving() bool {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// LastSaved returns a copy of the persisted reference, or nil if no
// session exists.
func (c *Coordinator) LastSaved() *Snapshot {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSaved == nil {
		return nil
	}
	ref := *s.lastSaved
	return &ref
}

// Close tears down the active session: the pending timer is cancelled and
// callbacks stop firing. An in-flight save is allowed to complete and its
// result still lands in the retired session's reference.
func (c *Coordinator) Close() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s != nil {
		s.close()
	}
}

func (c *Coordinator) sessionFor(snap Snapshot) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.id != snap.ID {
		if c.session != nil {
			c.session.close()
		}
		c.session = newSession(c.opts, snap)
	}
	return c.session
}

// session is the per-note state: the persisted reference, the latest
// observed snapshot, the in-flight flag and the pending timer. It replaces
// the mutable refs of a UI hook with a directly-owned struct that has a
// deterministic teardown path.
type session struct {
	id       string
	opts     Options
	debounce debouncer

	mu        sync.Mutex
	latest    Snapshot
	lastSaved *Snapshot
	saving    bool
	closed    bool
}

func newSession(opts Options, seed Snapshot) *session {
	ref := seed
	return &session{
		id:        seed.ID,
		opts:      opts,
		latest:    seed,
		lastSaved: &ref,
	}
}

func (s *session) observe(snap Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.latest = snap
	schedule := s.opts.Enabled && s.opts.Trigger == TriggerContinuous
	s.mu.Unlock()

	if schedule {
		s.debounce.Schedule(s.opts.Debounce, s.flush)
	}
}

// flush runs when the debounce window closes.
func (s *session) flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.saving {
		// An earlier save is still in flight. Try again after another
		// window so the latest state is coalesced, not dropped.
		s.mu.Unlock()
		s.debounce.Schedule(s.opts.Debounce, s.flush)
		return
	}
	candidate := s.latest
	if candidate.ID == "" {
		// Unpersisted draft; nothing to update yet.
		s.mu.Unlock()
		return
	}
	if !ShouldSave(s.lastSaved, candidate, s.opts.MinChangeThreshold) {
		s.mu.Unlock()
		return
	}
	s.saving = true
	s.mu.Unlock()

	saved, err := s.opts.Save(context.Background(), candidate)
	s.finish(saved, err)
}

func (s *session) forceSave(ctx context.Context, snap Snapshot) (Snapshot, bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, false, ErrSessionClosed
	}
	if s.saving {
		s.mu.Unlock()
		return Snapshot{}, false, ErrSaveInFlight
	}
	s.latest = snap
	if !ShouldSave(s.lastSaved, snap, s.opts.MinChangeThreshold) {
		s.mu.Unlock()
		return Snapshot{}, false, nil
	}
	s.saving = true
	s.mu.Unlock()

	saved, err := s.opts.Save(ctx, snap)
	s.finish(saved, err)
	if err != nil {
		return Snapshot{}, false, err
	}
	return saved, true, nil
}

// finish clears the in-flight flag and applies the result. A failure
// leaves the persisted reference at its pre-attempt value. After close the
// reference is still updated for a successful save that was already in
// flight, but no callbacks fire.
func (s *session) finish(saved Snapshot, err error) {
	s.mu.Lock()
	s.saving = false
	closed := s.closed
	if err == nil {
		ref := saved
		s.lastSaved = &ref
	}
	s.mu.Unlock()

	if closed {
		return
	}
	if err != nil {
		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
		return
	}
	if s.opts.OnSave != nil {
		s.opts.OnSave(saved)
	}
}

func (s *session) close() {
	s.debounce.Cancel()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
