package autosave

import (
	"sync"
	"time"
)

// debouncer schedules a single trailing-edge invocation. Scheduling again
// before the pending invocation fires supersedes it and restarts the delay
// window; a superseded timer that already started is detected through the
// generation counter and does nothing.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func (d *debouncer) Schedule(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		stale := gen != d.gen
		d.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

// Cancel stops any pending invocation. Safe to call repeatedly.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
